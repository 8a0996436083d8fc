//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"

	"github.com/Tiliavir/daybook/internal/app"
	"github.com/Tiliavir/daybook/internal/config"
	"github.com/Tiliavir/daybook/internal/effect"
	"github.com/Tiliavir/daybook/internal/metrics"
	"github.com/Tiliavir/daybook/internal/prefs"
	"github.com/Tiliavir/daybook/internal/session"
	"github.com/Tiliavir/daybook/internal/syncer"
)

func InitApp(cfg *config.Config) (*app.App, func(), error) {

	wire.Build(
		app.ProvideLogger,
		app.ProvideStore,
		wire.Bind(new(prefs.Store), new(*prefs.Observable)),
		app.ProvideRecords,
		app.ProvideVault,
		session.New,
		app.ProvideTokenSource,
		app.ProvideClient,
		effect.NewBus,
		metrics.New,
		app.ProvideRecorder,
		syncer.New,
		app.New,
	)

	return nil, nil, nil
}
