// Package catalogfile loads the keyword catalog from a YAML or JSON file.
package catalogfile

import (
	"github.com/spf13/viper"

	"github.com/fd1az/product-scout/business/trend/domain"
	"github.com/fd1az/product-scout/internal/apperror"
)

// Load reads the catalog at path. Sections absent from the file keep their
// compiled-in defaults; an empty path returns the defaults unchanged.
func Load(path string) (*domain.Catalog, error) {
	catalog := domain.DefaultCatalog()
	if path == "" {
		return catalog, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, apperror.New(apperror.CodeCatalogLoadFailed,
			apperror.WithCause(err),
			apperror.WithContext(path))
	}

	var file domain.Catalog
	if err := v.Unmarshal(&file); err != nil {
		return nil, apperror.New(apperror.CodeCatalogLoadFailed,
			apperror.WithCause(err),
			apperror.WithContext(path))
	}

	if v.IsSet("seasons") {
		catalog.Seasons = file.Seasons
	}
	if v.IsSet("categories") {
		catalog.Categories = file.Categories
	}
	if v.IsSet("competition") {
		catalog.Competition = file.Competition
	}
	if v.IsSet("regulatory") {
		catalog.Regulatory = file.Regulatory
	}

	if err := catalog.Validate(); err != nil {
		return nil, apperror.New(apperror.CodeCatalogLoadFailed,
			apperror.WithCause(err),
			apperror.WithContext(path))
	}
	return catalog, nil
}
