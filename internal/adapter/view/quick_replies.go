package view

// QuickReplies are offered to a buyer before the first message is sent.
var QuickReplies = []string{
	"Is this property still available?",
	"What is the final price?",
	"Can I schedule a site visit?",
	"Is the price negotiable?",
	"Are there any additional maintenance charges?",
}
