package app

import (
	"database/sql"

	"github.com/go-chi/oauth"

	"github.com/gmassari/dyn-survey/config"
	"github.com/gmassari/dyn-survey/session"
)

// App bundles the shared dependencies handed to every route.
type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config
}

// Defaults returns the widget placeholder texts configured for this server.
func (app App) Defaults() session.Defaults {
	return session.Defaults{
		ShortAnswer: app.ShortAnswerDefault,
		LongAnswer:  app.LongAnswerDefault,
		Option:      app.OptionDefault,
	}
}
