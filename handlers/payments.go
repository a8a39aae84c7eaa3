package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/satheeshds/invoicing/models"
)

// PaymentReceipt is returned after a payment: the updated invoice and its ledger row.
type PaymentReceipt struct {
	Invoice models.Invoice `json:"invoice"`
	Payment models.Payment `json:"payment"`
}

// ApplyPayment records a payment against an invoice
// @Summary      Apply payment
// @Description  Take a payment off the balance due. A payment larger than the balance is refused with the exact excess.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id        path      int                  true   "Invoice ID"
// @Param        If-Match  header    string               false  "Expected version"
// @Param        payment   body      models.PaymentInput  true   "Payment"
// @Success      201       {object}  Response{data=PaymentReceipt}
// @Failure      400       {object}  Response{error=string}
// @Failure      404       {object}  Response{error=string}
// @Failure      409       {object}  Response{error=string}
// @Failure      422       {object}  Response{data=excessPayment,error=string}
// @Router       /invoices/{id}/payments [post]
// @Security     BearerAuth
func (a *API) ApplyPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	version, err := expectedVersion(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var input models.PaymentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	inv, payment, err := a.invoices.ApplyPayment(r.Context(), id, input, version)
	if err != nil {
		a.writeFailure(w, r, err)
		return
	}
	setETag(w, inv)
	writeJSON(w, http.StatusCreated, PaymentReceipt{Invoice: inv, Payment: payment})
}

// MarkInvoicePaid settles an invoice in full
// @Summary      Mark paid
// @Description  Settle the whole remaining balance. Already paid invoices are returned unchanged.
// @Tags         payments
// @Produce      json
// @Param        id        path      int     true   "Invoice ID"
// @Param        If-Match  header    string  false  "Expected version"
// @Success      200       {object}  Response{data=models.Invoice}
// @Failure      404       {object}  Response{error=string}
// @Failure      409       {object}  Response{error=string}
// @Router       /invoices/{id}/mark-paid [post]
// @Security     BearerAuth
func (a *API) MarkInvoicePaid(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	version, err := expectedVersion(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	inv, err := a.invoices.MarkPaid(r.Context(), id, version)
	if err != nil {
		a.writeFailure(w, r, err)
		return
	}
	setETag(w, inv)
	writeJSON(w, http.StatusOK, inv)
}

// ListPayments retrieves the payment ledger of an invoice
// @Summary      List payments
// @Description  Get every payment applied to an invoice, oldest first.
// @Tags         payments
// @Produce      json
// @Param        id   path      int  true  "Invoice ID"
// @Success      200  {object}  Response{data=[]models.Payment}
// @Failure      404  {object}  Response{error=string}
// @Router       /invoices/{id}/payments [get]
// @Security     BearerAuth
func (a *API) ListPayments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	payments, err := a.invoices.Payments(r.Context(), id)
	if err != nil {
		a.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}
