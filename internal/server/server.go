// Package server wires the admin HTTP surface and the scheduler.
package server

import "github.com/google/wire"

// ProviderSet is server providers.
var ProviderSet = wire.NewSet(NewHTTPServer, NewCronServer)
