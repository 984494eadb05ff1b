package handler

// User-facing texts.
const (
	TextNothingFound  = "Dazu habe ich leider keine Info...🤔"
	TextHelp          = "Schreib mir ein Thema, zum Beispiel \"Klimawandel\", und ich suche dir die passenden Nachrichten raus. 📰"
	TextSubscribed    = "Alles klar! Ab jetzt bekommst du von mir Nachrichten. 🙌"
	TextUnsubscribed  = "Okay, du bekommst keine Nachrichten mehr von mir. Du kannst dich jederzeit wieder anmelden."
	TextFeedbackStart = "Was möchtest du uns sagen? Schreib uns einfach eine Nachricht. ✍️"
	TextSurveyStart   = "Danke, dass du bei unserer Umfrage mitmachst! 🙏"
	TextContentFailed = "Da ist leider etwas schiefgegangen. Versuch es bitte später noch einmal."

	labelListen = "Jetzt anhören 🎧"
	labelRead   = "Lesen 📰"
)
