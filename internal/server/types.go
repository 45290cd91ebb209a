package server

import (
	"github.com/danielpatrickdp/multiseq-learning/internal/classifier"
	"github.com/danielpatrickdp/multiseq-learning/internal/sdr"
)

// #region collaborators
// Inferer runs one Reset + Predict pass. *engine.Engine satisfies it.
type Inferer interface {
	Infer(input sdr.Vector) ([]classifier.Result, error)
}

// QueryEncoder turns a raw date string into the input vector the engine was trained on.
type QueryEncoder interface {
	EncodeString(raw string) (sdr.Vector, error)
}

// #endregion collaborators

// #region server-config
// ServerConfig holds listener settings.
type ServerConfig struct {
	Addr string
}

// DefaultServerConfig listens on all interfaces, port 50051.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{Addr: ":50051"}
}

// #endregion server-config
