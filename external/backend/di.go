package backend

import (
	"github.com/foxseedlab/mensetsu/internal/backend"
	"github.com/foxseedlab/mensetsu/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (backend.Client, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewHTTPClient(Config{
			BaseURL:       c.APIBaseURL,
			SessionCookie: c.APISessionCookie,
			CSRFToken:     c.APICSRFToken,
			Timeout:       c.HTTPTimeout,
		})
	})
}
