package handler

import (
	"net/http"

	"github.com/xenking/pantry-storefront/internal/domain/contact"
)

// contactPageData is the template data for the contact page.
type contactPageData struct {
	CartCount int
	Input     contact.Input
	Errors    contact.Result
	Sent      bool
}

func (h *Handler) contactPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "contact", contactPageData{CartCount: h.cart.Count()})
}

// submitContact validates the form. Failures re-render the form with the
// submitted values and inline per-field messages; submission is blocked but
// nothing errors out.
func (h *Handler) submitContact(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	in := contact.Input{
		Name:    r.PostFormValue("name"),
		Email:   r.PostFormValue("email"),
		Message: r.PostFormValue("message"),
	}

	res := contact.Validate(in)
	if !res.OK() {
		h.render(w, r, "contact", contactPageData{
			CartCount: h.cart.Count(),
			Input:     in,
			Errors:    res,
		})
		return
	}

	h.render(w, r, "contact", contactPageData{
		CartCount: h.cart.Count(),
		Sent:      true,
	})
}
