package event

const OTPIssuedSubject string = "otp_issued"
const OTPIssuedConsumerNotification string = "otp_issued_notification"

// OTPIssuedMessage carries a freshly issued code to the mail sender. The
// plaintext code is on the wire, so the subject must stay on a private broker.
type OTPIssuedMessage struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}
