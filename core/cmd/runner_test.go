package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/expensebot/core/config"
	coretelegram "github.com/m3rciful/expensebot/core/telegram"
)

type carrier struct{ cfg *coreconfig.Config }

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

type fakeApp struct {
	closed int
	optErr error
}

func (a *fakeApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{}, a.optErr
}

func (a *fakeApp) Close() error {
	a.closed++
	return nil
}

func TestRunRequiresHooks(t *testing.T) {
	assert.Error(t, Run(Options{}))
	assert.Error(t, Run(Options{LoadConfig: func(string) (ConfigCarrier, error) { return carrier{}, nil }}))
}

func TestRunWiresLifecycle(t *testing.T) {
	t.Setenv("EXPENSEBOT_TEST_CONFIG", "custom.yaml")
	app := &fakeApp{}
	var (
		gotPath       string
		loggerClosed  bool
		started, stop bool
	)
	err := Run(Options{
		ConfigEnvVar: "EXPENSEBOT_TEST_CONFIG",
		LoadConfig: func(path string) (ConfigCarrier, error) {
			gotPath = path
			return carrier{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap:      func(ConfigCarrier) (TelegramApp, error) { return app, nil },
		ShutdownLogger: func() error { loggerClosed = true; return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			require.NotNil(t, opts.OnStart)
			require.NotNil(t, opts.OnStop)
			started = opts.OnStart(ctx, coretelegram.Runtime{}) == nil
			stop = opts.OnStop(ctx, coretelegram.Runtime{}) == nil
			return nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "custom.yaml", gotPath)
	assert.True(t, started)
	assert.True(t, stop)
	assert.True(t, loggerClosed)
	assert.Equal(t, 1, app.closed)
}

func TestRunClosesAppOnOptionsError(t *testing.T) {
	app := &fakeApp{optErr: errors.New("boom")}
	err := Run(Options{
		DefaultConfigPath: "x.yaml",
		LoadConfig:        func(string) (ConfigCarrier, error) { return carrier{cfg: &coreconfig.Config{}}, nil },
		Bootstrap:         func(ConfigCarrier) (TelegramApp, error) { return app, nil },
		ShutdownLogger:    func() error { return nil },
		RunTelegram: func(context.Context, coretelegram.RunOptions) error {
			t.Fatal("run must not start")
			return nil
		},
	})
	assert.Error(t, err)
	assert.Equal(t, 1, app.closed)
}

func TestRunRejectsMissingCoreConfig(t *testing.T) {
	err := Run(Options{
		DefaultConfigPath: "x.yaml",
		LoadConfig:        func(string) (ConfigCarrier, error) { return carrier{}, nil },
		Bootstrap:         func(ConfigCarrier) (TelegramApp, error) { return &fakeApp{}, nil },
	})
	assert.ErrorContains(t, err, "missing core configuration")
}
