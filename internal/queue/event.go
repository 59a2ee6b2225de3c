package queue

// EmailJob is the message published to the email.outbound queue.  It is the
// full send request: the consumer needs nothing beyond this payload to hand
// the mail to SMTP.
type EmailJob struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
}

// EmailQueueName is the durable queue carrying outbound mail jobs.
const EmailQueueName = "email.outbound"
