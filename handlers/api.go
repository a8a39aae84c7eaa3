package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/satheeshds/invoicing/auth"
	"github.com/satheeshds/invoicing/models"
	"github.com/satheeshds/invoicing/service"
)

// API holds the dependencies shared by all handlers.
type API struct {
	invoices *service.InvoiceService
	members  *service.MemberService
	auth     *auth.Authenticator
	log      zerolog.Logger
}

// NewAPI wires the handlers to their services.
func NewAPI(invoices *service.InvoiceService, members *service.MemberService, authenticator *auth.Authenticator, log zerolog.Logger) *API {
	return &API{invoices: invoices, members: members, auth: authenticator, log: log}
}

// Routes returns the /api/v1 router.
func (a *API) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/auth/login", a.Login)

	r.Group(func(r chi.Router) {
		r.Use(a.RequireSession)

		r.Get("/auth/me", a.Me)

		// Invoices
		r.Get("/invoices", a.ListInvoices)
		r.Post("/invoices", a.CreateInvoice)
		r.Get("/invoices/latest", a.LatestInvoice)
		r.Get("/invoices/next-number", a.NextInvoiceNumber)
		r.Get("/invoices/{id}", a.GetInvoice)
		r.Patch("/invoices/{id}", a.UpdateInvoice)
		r.Delete("/invoices/{id}", a.DeleteInvoice)
		r.Get("/invoices/{id}/payments", a.ListPayments)
		r.Post("/invoices/{id}/payments", a.ApplyPayment)
		r.Post("/invoices/{id}/mark-paid", a.MarkInvoicePaid)
		r.Post("/invoices/{id}/reprice", a.RepriceInvoice)

		// Members
		r.Get("/members", a.ListMembers)
		r.Get("/members/{id}", a.GetMember)
		r.Group(func(r chi.Router) {
			r.Use(RequireRole(models.RoleAdmin))
			r.Post("/members", a.CreateMember)
			r.Put("/members/{id}", a.UpdateMember)
			r.Delete("/members/{id}", a.DeleteMember)
		})

		// Dashboard
		r.Get("/dashboard", a.GetDashboard)
	})

	return r
}

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", chi.URLParam(r, "id"))
	}
	return id, nil
}

// expectedVersion reads If-Match. A missing header or "*" returns 0, meaning the
// version read by the service is used.
func expectedVersion(r *http.Request) (int64, error) {
	v := strings.TrimSpace(r.Header.Get("If-Match"))
	if v == "" || v == "*" {
		return 0, nil
	}
	v = strings.Trim(strings.TrimPrefix(v, "W/"), `"`)
	version, err := strconv.ParseInt(v, 10, 64)
	if err != nil || version <= 0 {
		return 0, fmt.Errorf("invalid If-Match header %q", r.Header.Get("If-Match"))
	}
	return version, nil
}

// setETag publishes the version of inv so clients can send it back in If-Match.
func setETag(w http.ResponseWriter, inv models.Invoice) {
	w.Header().Set("ETag", strconv.Quote(strconv.FormatInt(inv.Version, 10)))
}
