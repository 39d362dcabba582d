package live

import "go.uber.org/fx"

var Module = fx.Module("invoice.live",
	fx.Provide(NewHub),
	fx.Provide(
		NewBroker,
		func(b *Broker) Publisher { return b },
	),
)
