// Package di contains dependency injection tokens for the opportunity context.
package di

import (
	"github.com/fd1az/product-scout/business/opportunity/app"
	"github.com/fd1az/product-scout/business/opportunity/infra/telegram"
	"github.com/fd1az/product-scout/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Ranker  = di.NewToken[*app.Ranker]("opportunity.Ranker")
	Scanner = di.NewToken[*app.Scanner]("opportunity.Scanner")
)

// Private dependency tokens - a nil pointer when the bot is disabled
var (
	Bot = di.NewToken[*telegram.Bot]("opportunity:bot")
)

// Helper functions for type-safe access
func GetRanker(c di.ServiceRegistry) *app.Ranker {
	return di.GetToken(c, Ranker)
}

func GetScanner(c di.ServiceRegistry) *app.Scanner {
	return di.GetToken(c, Scanner)
}

func GetBot(c di.ServiceRegistry) *telegram.Bot {
	return di.GetToken(c, Bot)
}
