package channel

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"botforge/internal/domain"
	"botforge/internal/repository"
)

// OutboundMessage es una respuesta del bot lista para entregar a un canal.
type OutboundMessage struct {
	ChatbotID string
	Channel   string
	Recipient string
	Content   string
}

// Dispatcher entrega mensajes salientes. La entrega es best-effort: el
// pipeline ya persistió la respuesta antes de llamar acá.
type Dispatcher interface {
	Deliver(ctx context.Context, out OutboundMessage) error
}

var (
	ErrUnsupportedChannel  = errors.New("unsupported channel")
	ErrIntegrationMissing  = errors.New("integration not configured")
	ErrIntegrationDisabled = errors.New("integration inactive")
)

// Router resuelve la integración del chatbot y delega en el cliente del
// canal correspondiente.
type Router struct {
	logger       *zap.Logger
	integrations repository.IntegrationRepository
	graph        *GraphClient
	email        EmailSender
}

func NewRouter(logger *zap.Logger, integrations repository.IntegrationRepository, graph *GraphClient, email EmailSender) *Router {
	return &Router{
		logger:       logger,
		integrations: integrations,
		graph:        graph,
		email:        email,
	}
}

func (r *Router) Deliver(ctx context.Context, out OutboundMessage) error {
	integ, err := r.integrations.GetByChatbotAndType(ctx, out.ChatbotID, out.Channel)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrIntegrationMissing, out.Channel)
	}
	if integ.Status != domain.IntegrationStatusActive {
		return ErrIntegrationDisabled
	}

	switch out.Channel {
	case domain.ChannelWhatsApp:
		return r.graph.SendWhatsApp(ctx,
			integ.Config["phone_number_id"],
			integ.Config["access_token"],
			out.Recipient,
			out.Content,
		)
	case domain.ChannelMessenger:
		return r.graph.SendMessenger(ctx,
			integ.Config["page_access_token"],
			out.Recipient,
			out.Content,
		)
	case domain.ChannelEmail:
		if r.email == nil {
			return ErrIntegrationDisabled
		}
		return r.email.Send(ctx, out.Recipient, "New message from your assistant", out.Content)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedChannel, out.Channel)
	}
}
