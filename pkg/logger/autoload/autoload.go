// Package autoload initializes the global logger from the environment as an
// import side effect.
package autoload

import (
	configx "github.com/zensbot/leadflow/pkg/config"
	logx "github.com/zensbot/leadflow/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))
}
