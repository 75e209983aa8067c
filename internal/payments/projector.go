package payments

// Project maps a stored record to the response returned by both the create
// and the read paths, so a replayed create is indistinguishable from the original.
func Project(rec Record) Response {
	resp := Response{
		ID:                 rec.ID,
		Status:             rec.Status,
		CardNumberLastFour: rec.MaskedCard,
		ExpiryMonth:        rec.ExpiryMonth,
		ExpiryYear:         rec.ExpiryYear,
		Currency:           rec.Currency,
		Amount:             rec.Amount,
	}
	if rec.Status != StatusAuthorized {
		resp.Reason = rec.Reason
	}
	return resp
}

// Reject builds the response for a request that failed validation.
func Reject(id string, errs []string) RejectedResponse {
	return RejectedResponse{ID: id, Status: StatusRejected, Errors: errs}
}
