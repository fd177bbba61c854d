package app

import (
	"database/sql"

	"github.com/go-chi/oauth"

	"github.com/formflow/formflow/config"
)

// App bundles the shared service dependencies handed to route handlers.
type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config
}
