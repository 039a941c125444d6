package scoring

// Questionnaire is the form definition served to clients so the questionnaire
// wording lives in one place.
type Questionnaire struct {
	Key       string   `json:"key"`
	Title     string   `json:"title"`
	Questions []string `json:"questions"`
	Options   []string `json:"options"`
}

// AnswerOptions are the shared 0-3 response labels for both instruments.
var AnswerOptions = []string{
	"Not at all",
	"Several days",
	"More than half the days",
	"Nearly every day",
}

// PHQ9Questions are the nine PHQ-9 items in order.
var PHQ9Questions = []string{
	"Little interest or pleasure in doing things",
	"Feeling down, depressed, or hopeless",
	"Trouble falling or staying asleep, or sleeping too much",
	"Feeling tired or having little energy",
	"Poor appetite or overeating",
	"Feeling bad about yourself or that you are a failure",
	"Trouble concentrating on things",
	"Moving or speaking so slowly that other people could have noticed",
	"Thoughts that you would be better off dead or of hurting yourself",
}

// GAD7Questions are the seven GAD-7 items in order.
var GAD7Questions = []string{
	"Feeling nervous, anxious or on edge",
	"Not being able to stop or control worrying",
	"Worrying too much about different things",
	"Trouble relaxing",
	"Being so restless that is hard to sit still",
	"Becoming easily annoyed or irritable",
	"Feeling afraid as if something awful might happen",
}

// Questionnaires returns both form definitions.
func Questionnaires() []Questionnaire {
	return []Questionnaire{
		{Key: "phq9", Title: "PHQ-9 Depression Questionnaire", Questions: PHQ9Questions, Options: AnswerOptions},
		{Key: "gad7", Title: "GAD-7 Anxiety Questionnaire", Questions: GAD7Questions, Options: AnswerOptions},
	}
}
