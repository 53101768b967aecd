package cli

import "github.com/leapstack-labs/leapmigrate/pkg/catalog"

func supportedDialects() []string {
	cat, err := catalog.Default()
	if err != nil {
		return nil
	}
	return cat.Dialects()
}
