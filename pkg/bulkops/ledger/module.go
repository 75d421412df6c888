package ledger

import "go.uber.org/fx"

// Module provides the ledger service to Fx.
var Module = fx.Options(
	fx.Provide(NewService),
)
