// Package notify delivers accountability messages: a web push to each of the
// owner's devices and an email to every email-channel contact.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukerupert/north/internal/model"
	"github.com/dukerupert/north/internal/push"
)

type pusher interface {
	Configured() bool
	Send(ctx context.Context, sub *model.PushSubscription, payload push.Payload) error
}

type subscriptions interface {
	List() ([]model.PushSubscription, error)
	DeleteByEndpoint(endpoint string) error
}

type mailer interface {
	Configured() bool
	SendAccountability(ctx context.Context, toEmail, contactName, message string) error
}

type Gateway struct {
	push   pusher
	subs   subscriptions
	mail   mailer
	logger *slog.Logger
}

// NewGateway wires the delivery channels. Any of them may be nil or
// unconfigured; that channel is then skipped.
func NewGateway(p pusher, subs subscriptions, m mailer, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{push: p, subs: subs, mail: m, logger: logger.With("component", "notify")}
}

// NotifyAccountability sends message on every available channel and returns
// the joined delivery errors.
func (g *Gateway) NotifyAccountability(ctx context.Context, c model.Contract, message string) error {
	var errs []error
	if err := g.pushDevices(ctx, c); err != nil {
		errs = append(errs, err)
	}

	for _, ct := range c.AccountabilityContacts {
		switch ct.Channel {
		case model.ChannelEmail:
			if g.mail == nil || !g.mail.Configured() {
				g.logger.Warn("email not configured, skipping contact", "contract", c.ID, "contact", ct.ID)
				continue
			}
			if err := g.mail.SendAccountability(ctx, ct.Value, ct.Name, message); err != nil {
				errs = append(errs, fmt.Errorf("email %s: %w", ct.ID, err))
				continue
			}
			g.logger.Info("accountability email sent", "contract", c.ID, "contact", ct.ID)
		default:
			// SMS is handed to the device share sheet by the client.
			g.logger.Info("sms contact left to device share", "contract", c.ID, "contact", ct.ID)
		}
	}
	return errors.Join(errs...)
}

func (g *Gateway) pushDevices(ctx context.Context, c model.Contract) error {
	if g.push == nil || g.subs == nil || !g.push.Configured() {
		return nil
	}
	subs, err := g.subs.List()
	if err != nil {
		return fmt.Errorf("list push subscriptions: %w", err)
	}

	payload := push.Payload{
		Title: "Promise missed",
		Body:  c.Promise,
		URL:   "/contracts/" + c.ID,
		Tag:   "contract-" + c.ID,
	}

	var errs []error
	for i := range subs {
		err := g.push.Send(ctx, &subs[i], payload)
		switch {
		case errors.Is(err, push.ErrExpired):
			g.logger.Info("removing expired push subscription", "id", subs[i].ID)
			if err := g.subs.DeleteByEndpoint(subs[i].Endpoint); err != nil {
				errs = append(errs, err)
			}
		case err != nil:
			errs = append(errs, fmt.Errorf("push %d: %w", subs[i].ID, err))
		}
	}
	return errors.Join(errs...)
}
