package kafka

const (
	TopicTicketIssued    = "waitroom.ticket.issued"
	TopicVisitorAdmitted = "waitroom.visitor.admitted"
	TopicSessionReset    = "waitroom.session.reset"
)
