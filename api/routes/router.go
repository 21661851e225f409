package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/buildbazaar/buildbazaar-backend/api/controllers"
	"github.com/buildbazaar/buildbazaar-backend/api/middleware"
	"github.com/buildbazaar/buildbazaar-backend/internal/delivery"
	"github.com/buildbazaar/buildbazaar-backend/internal/disputes"
	"github.com/buildbazaar/buildbazaar-backend/internal/notifications"
	"github.com/buildbazaar/buildbazaar-backend/internal/offers"
	"github.com/buildbazaar/buildbazaar-backend/internal/orders"
	"github.com/buildbazaar/buildbazaar-backend/internal/settlements"
	"github.com/buildbazaar/buildbazaar-backend/pkg/config"
	"github.com/buildbazaar/buildbazaar-backend/pkg/logger"
)

// Services bundles everything the HTTP surface depends on.
type Services struct {
	Orders        orders.Service
	Offers        offers.Service
	Delivery      delivery.Service
	Disputes      disputes.Service
	Settlements   settlements.Service
	Notifications notifications.Service
}

// NewRouter assembles the full HTTP handler. Health endpoints sit outside the
// actor and idempotency middleware so probes stay headerless.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	readiness map[string]controllers.Pinger,
	idemStore middleware.IdempotencyStore,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(
			middleware.Actor(logg),
			middleware.Idempotency(idemStore, logg),
		)

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(svcs.Orders, logg))
			r.Get("/", controllers.ListBuyerOrders(svcs.Orders, logg))
			r.Route("/{orderID}", func(r chi.Router) {
				r.Get("/", controllers.GetOrder(svcs.Orders, logg))
				r.Post("/confirm", controllers.ConfirmOrder(svcs.Orders, logg))
				r.Post("/activate", controllers.ActivateOrder(svcs.Orders, logg))
				r.Post("/complete", controllers.CompleteOrder(svcs.Orders, logg))
				r.Post("/cancel", controllers.CancelOrder(svcs.Orders, logg))
				r.Post("/offers", controllers.CreateOffers(svcs.Offers, logg))
				r.Get("/disputes", controllers.ListOrderDisputes(svcs.Disputes, logg))
				r.Post("/disputes", controllers.OpenDispute(svcs.Disputes, logg))
			})
		})

		r.Route("/offers", func(r chi.Router) {
			r.Get("/", controllers.ListVendorOffers(svcs.Offers, logg))
			r.Route("/{offerID}", func(r chi.Router) {
				r.Get("/", controllers.GetOffer(svcs.Offers, logg))
				r.Post("/accept", controllers.AcceptOffer(svcs.Offers, logg))
				r.Post("/reject", controllers.RejectOffer(svcs.Offers, logg))
				r.Post("/start-progress", controllers.StartOfferProgress(svcs.Offers, logg))
				r.Post("/ready", controllers.MarkOfferReady(svcs.Offers, logg))
				r.Post("/otp", controllers.IssueOTP(svcs.Delivery, logg))
				r.Post("/confirm-otp", controllers.ConfirmOTP(svcs.Delivery, logg))
				r.Post("/confirm-photo", controllers.ConfirmPhoto(svcs.Delivery, logg))
				r.Post("/confirm-delivered", controllers.ConfirmDelivered(svcs.Delivery, logg))
			})
		})

		r.Route("/disputes/{disputeID}", func(r chi.Router) {
			r.Get("/", controllers.GetDispute(svcs.Disputes, logg))
			r.Post("/review", controllers.StartDisputeReview(svcs.Disputes, logg))
			r.Post("/escalate", controllers.EscalateDispute(svcs.Disputes, logg))
			r.Post("/resolve", controllers.ResolveDispute(svcs.Disputes, logg))
			r.Post("/evidence", controllers.AddDisputeEvidence(svcs.Disputes, logg))
		})

		r.Route("/settlements", func(r chi.Router) {
			r.Post("/", controllers.BuildSettlement(svcs.Settlements, logg))
			r.Get("/", controllers.ListVendorSettlements(svcs.Settlements, logg))
			r.Route("/{batchID}", func(r chi.Router) {
				r.Get("/", controllers.GetSettlement(svcs.Settlements, logg))
				r.Post("/processing", controllers.MarkSettlementProcessing(svcs.Settlements, logg))
				r.Post("/paid", controllers.MarkSettlementPaid(svcs.Settlements, logg))
				r.Post("/failed", controllers.MarkSettlementFailed(svcs.Settlements, logg))
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
		})
	})

	return r
}
