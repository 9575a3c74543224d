package service

import (
	"context"
	"fmt"
	"log/slog"

	"binwahab-store/internal/client"
	"binwahab-store/internal/model"
	"binwahab-store/internal/repository"
)

// Notifier sends customer emails. Delivery is best effort: failures are logged and never
// returned to the caller.
type Notifier interface {
	OrderPlaced(ctx context.Context, order *model.Order)
	PaymentConfirmed(ctx context.Context, order *model.Order)
	PaymentFailed(ctx context.Context, order *model.Order)
	ReturnApproved(ctx context.Context, ret *model.Return)
	ReturnRejected(ctx context.Context, ret *model.Return)
}

type notifierImpl struct {
	mailClient client.MailClient
	userRepo   repository.UserRepository
	log        *slog.Logger
}

func NewNotifier(mailClient client.MailClient, userRepo repository.UserRepository, log *slog.Logger) Notifier {
	return &notifierImpl{
		mailClient: mailClient,
		userRepo:   userRepo,
		log:        log,
	}
}

func (n *notifierImpl) OrderPlaced(ctx context.Context, order *model.Order) {
	n.send(ctx, order.UserID,
		fmt.Sprintf("Order %s received", order.OrderNumber),
		fmt.Sprintf("Thank you for shopping with BINWAHAB.\n\nOrder: %s\nTotal: %s %s\n\nWe will let you know once payment is confirmed.",
			order.OrderNumber, order.Currency, order.Total.StringFixed(2)))
}

func (n *notifierImpl) PaymentConfirmed(ctx context.Context, order *model.Order) {
	n.send(ctx, order.UserID,
		fmt.Sprintf("Payment confirmed for order %s", order.OrderNumber),
		fmt.Sprintf("We have received your payment of %s %s for order %s. Your order is now being processed.",
			order.Currency, order.Total.StringFixed(2), order.OrderNumber))
}

func (n *notifierImpl) PaymentFailed(ctx context.Context, order *model.Order) {
	n.send(ctx, order.UserID,
		fmt.Sprintf("Payment failed for order %s", order.OrderNumber),
		fmt.Sprintf("Your payment for order %s did not go through. No money was taken; please place the order again.",
			order.OrderNumber))
}

func (n *notifierImpl) ReturnApproved(ctx context.Context, ret *model.Return) {
	body := fmt.Sprintf("Your return %s has been approved.", ret.ReturnNumber)
	if ret.Refund != nil {
		body += fmt.Sprintf("\nRefund: %s (%s)", ret.Refund.Amount.StringFixed(2), ret.Refund.Method)
	}
	n.send(ctx, ret.UserID, fmt.Sprintf("Return %s approved", ret.ReturnNumber), body)
}

func (n *notifierImpl) ReturnRejected(ctx context.Context, ret *model.Return) {
	body := fmt.Sprintf("Your return %s was not approved.", ret.ReturnNumber)
	if ret.AdminNotes != "" {
		body += "\n\n" + ret.AdminNotes
	}
	n.send(ctx, ret.UserID, fmt.Sprintf("Return %s update", ret.ReturnNumber), body)
}

func (n *notifierImpl) send(ctx context.Context, userID, subject, body string) {
	user, err := n.userRepo.FindByID(ctx, userID)
	if err != nil || user.Email == "" {
		n.log.WarnContext(ctx, "skip notification, no email on file", "user_id", userID, "subject", subject)
		return
	}

	if err := n.mailClient.Send(ctx, user.Email, subject, body); err != nil {
		n.log.ErrorContext(ctx, "send notification", "user_id", userID, "subject", subject, "error", err)
	}
}
