package transports

import (
	"github.com/anthonylubrino/globalmcp/internal/domain/models"
	"github.com/anthonylubrino/globalmcp/internal/domain/services"
	"github.com/anthonylubrino/globalmcp/internal/infrastructure/config"
)

// NewClients builds one client per transport in the closed enum, keyed
// for lookup by the router.
func NewClients(cfg config.RoutingConfig) map[models.Transport]services.ModelClient {
	return map[models.Transport]services.ModelClient{
		models.TransportLocalInference: NewLocalInferenceClient(cfg),
		models.TransportHTTPAPI:        NewHTTPAPIClient(cfg),
		models.TransportMock:           NewMockClient(),
	}
}
