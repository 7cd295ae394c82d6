package dispatch

import "github.com/shaharia-lab/sesrelay/internal/mail"

// Collate narrows msg to the recipients that failed in res and reports them
// as a *PartialFailureError. It returns nil when nothing failed. Any failure
// is reported, however small a share of the batch it is.
func Collate(msg *mail.Message, res Result) *PartialFailureError {
	failed := res.FailedAddresses()
	if len(failed) == 0 {
		return nil
	}
	msg.RetainRecipients(failed)
	return &PartialFailureError{
		Count:     len(failed),
		Addresses: failed,
		Failures:  res.Failures,
	}
}
