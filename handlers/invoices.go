package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"cloud.google.com/go/civil"

	"github.com/satheeshds/invoicing/models"
)

// InvoiceUpdate is returned by edits: the stored invoice and the fields that changed.
type InvoiceUpdate struct {
	Invoice models.Invoice `json:"invoice"`
	Changed []string       `json:"changed"`
}

// NextNumber is the identifier the next created invoice will receive.
type NextNumber struct {
	InvoiceNumber string `json:"invoice_number"`
}

// ListInvoices lists all invoices
// @Summary      List invoices
// @Description  Get invoices newest first, with payment status resolved for today.
// @Tags         invoices
// @Produce      json
// @Param        status   query     string  false  "Filter by status (Due, PartiallyPaid, Paid, Overdue)"
// @Param        search   query     string  false  "Search by invoice number, party name or notes"
// @Param        from     query     string  false  "Issued on or after (YYYY-MM-DD)"
// @Param        to       query     string  false  "Issued on or before (YYYY-MM-DD)"
// @Success      200      {object}  Response{data=[]models.Invoice}
// @Failure      400      {object}  Response{error=string}
// @Router       /invoices [get]
// @Security     BearerAuth
func (a *API) ListInvoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.InvoiceFilter{
		Status: models.PaymentStatus(q.Get("status")),
		Search: q.Get("search"),
	}
	for _, p := range []struct {
		key    string
		target **civil.Date
	}{{"from", &filter.From}, {"to", &filter.To}} {
		if v := q.Get(p.key); v != "" {
			d, err := civil.ParseDate(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, p.key+" must be a date (YYYY-MM-DD)")
				return
			}
			*p.target = &d
		}
	}

	invoices, err := a.invoices.List(r.Context(), filter)
	if err != nil {
		a.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, invoices)
}

// GetInvoice retrieves a single invoice by ID
// @Summary      Get invoice
// @Description  Get an invoice. The ETag header carries its version.
// @Tags         invoices
// @Produce      json
// @Param        id   path      int  true  "Invoice ID"
// @Success      200  {object}  Response{data=models.Invoice}
// @Failure      404  {object}  Response{error=string}
// @Router       /invoices/{id} [get]
// @Security     BearerAuth
func (a *API) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	inv, err := a.invoices.Get(r.Context(), id)
	if err != nil {
		a.writeFailure(w, r, err)
		return
	}
	setETag(w, inv)
	writeJSON(w, http.StatusOK, inv)
}

// LatestInvoice retrieves the most recently created invoice
// @Summary      Latest invoice
// @Description  Get the most recently created invoice, or null when there is none.
// @Tags         invoices
// @Produce      json
// @Success      200  {object}  Response{data=models.Invoice}
// @Router       /invoices/latest [get]
// @Security     BearerAuth
func (a *API) LatestInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := a.invoices.Latest(r.Context())
	if err != nil {
		a.writeFailure(w, r, err)
		return
	}
	if inv == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	setETag(w, *inv)
	writeJSON(w, http.StatusOK, inv)
}

// NextInvoiceNumber previews the next invoice number
// @Summary      Next invoice number
// @Description  Get the identifier the next created invoice will receive.
// @Tags         invoices
// @Produce      json
// @Success      200  {object}  Response{data=NextNumber}
// @Router       /invoices/next-number [get]
// @Security     BearerAuth
func (a *API) NextInvoiceNumber(w http.ResponseWriter, r *http.Request) {
	number, err := a.invoices.NextNumber(r.Context())
	if err != nil {
		a.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NextNumber{InvoiceNumber: number})
}

// CreateInvoice creates a new invoice
// @Summary      Create invoice
// @Description  Create an invoice. The number, term, tax and totals are derived.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        invoice  body      models.InvoiceInput  true  "Invoice contents"
// @Success      201      {object}  Response{data=models.Invoice}
// @Failure      400      {object}  Response{error=string}
// @Failure      409      {object}  Response{error=string}
// @Router       /invoices [post]
// @Security     BearerAuth
func (a *API) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var input models.InvoiceInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	inv, err := a.invoices.Create(r.Context(), input)
	if err != nil {
		a.writeFailure(w, r, err)
		return
	}
	setETag(w, inv)
	writeJSON(w, http.StatusCreated, inv)
}

// UpdateInvoice edits an existing invoice
// @Summary      Update invoice
// @Description  Apply a partial edit. Derived fields are recomputed once and only changed fields are written. Line-item edits are refused once a payment exists. Send "due_date": null to remove the due date.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id        path      int                  true   "Invoice ID"
// @Param        If-Match  header    string               false  "Expected version"
// @Param        invoice   body      models.InvoicePatch  true   "Fields to change"
// @Success      200       {object}  Response{data=InvoiceUpdate}
// @Failure      400       {object}  Response{error=string}
// @Failure      404       {object}  Response{error=string}
// @Failure      409       {object}  Response{error=string}
// @Router       /invoices/{id} [patch]
// @Security     BearerAuth
func (a *API) UpdateInvoice(w http.ResponseWriter, r *http.Request) {
	a.editInvoice(w, r, a.invoices.Update)
}

// RepriceInvoice re-derives the totals of a partly paid invoice
// @Summary      Reprice invoice
// @Description  Apply a line-item edit to an invoice with payments, keeping the amount already paid.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id        path      int                  true   "Invoice ID"
// @Param        If-Match  header    string               false  "Expected version"
// @Param        invoice   body      models.InvoicePatch  true   "Fields to change"
// @Success      200       {object}  Response{data=InvoiceUpdate}
// @Failure      400       {object}  Response{error=string}
// @Failure      404       {object}  Response{error=string}
// @Failure      409       {object}  Response{error=string}
// @Router       /invoices/{id}/reprice [post]
// @Security     BearerAuth
func (a *API) RepriceInvoice(w http.ResponseWriter, r *http.Request) {
	a.editInvoice(w, r, a.invoices.Reprice)
}

type editFunc func(ctx context.Context, id int64, patch models.InvoicePatch, expectedVersion int64) (models.Invoice, []string, error)

func (a *API) editInvoice(w http.ResponseWriter, r *http.Request, edit editFunc) {
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
	var patch models.InvoicePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	inv, changed, err := edit(r.Context(), id, patch, version)
	if err != nil {
		a.writeFailure(w, r, err)
		return
	}
	if changed == nil {
		changed = []string{}
	}
	setETag(w, inv)
	writeJSON(w, http.StatusOK, InvoiceUpdate{Invoice: inv, Changed: changed})
}

// DeleteInvoice deletes an invoice
// @Summary      Delete invoice
// @Description  Permanently remove an invoice and its payment ledger.
// @Tags         invoices
// @Produce      json
// @Param        id   path      int  true  "Invoice ID"
// @Success      200  {object}  Response{data=map[string]string}
// @Failure      404  {object}  Response{error=string}
// @Router       /invoices/{id} [delete]
// @Security     BearerAuth
func (a *API) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.invoices.Delete(r.Context(), id); err != nil {
		a.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}
