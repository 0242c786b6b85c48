// Package di contains dependency injection tokens for the risk context.
package di

import (
	"github.com/fd1az/product-scout/business/risk/app"
	"github.com/fd1az/product-scout/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Assessor = di.NewToken[*app.Assessor]("risk.Assessor")
)

// Helper functions for type-safe access
func GetAssessor(c di.ServiceRegistry) *app.Assessor {
	return di.GetToken(c, Assessor)
}
