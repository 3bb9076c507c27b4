package notifier

import (
	"fmt"
	"html"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/NordCoder/Reminderus/internal/domain/notification"
	"github.com/NordCoder/Reminderus/internal/prayer"
)

var hadiths = []string{
	"The first matter that the slave will be brought to account for on the Day of Judgment is the prayer.",
	"Guard strictly your prayers, especially the middle prayer.",
	"Between a man and disbelief is abandoning the prayer.",
}

// pickFunc returns an index in [0, n).
type pickFunc func(n int) int

func randomPick(n int) int { return rand.IntN(n) }

func startMessage(w prayer.Window, loc *time.Location) notification.Message {
	clock := w.Clock
	if clock == "" {
		clock = clockIn(w.Start, loc)
	}
	text := fmt.Sprintf("%s prayer time has started at %s.", w.Prayer, clock)
	return notification.Message{
		Subject: fmt.Sprintf("%s time has started", w.Prayer),
		Text:    text,
		HTML:    htmlBody(text),
	}
}

func halfMessage(w prayer.Window, pick pickFunc) notification.Message {
	hadith := hadiths[pick(len(hadiths))]
	text := fmt.Sprintf("%s time is halfway through. Please pray soon.\n\nHadith: %s", w.Prayer, hadith)
	return notification.Message{
		Subject: fmt.Sprintf("%s reminder", w.Prayer),
		Text:    text,
		HTML:    htmlBody(text),
	}
}

func endMessage(w prayer.Window, loc *time.Location) notification.Message {
	text := fmt.Sprintf("%s time ends at %s. About %d minutes left.",
		w.Prayer, clockIn(w.End, loc), int(prayer.EndWarningLead/time.Minute))
	return notification.Message{
		Subject: fmt.Sprintf("%s time is ending soon", w.Prayer),
		Text:    text,
		HTML:    htmlBody(text),
	}
}

func clockIn(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("15:04")
}

func htmlBody(text string) string {
	var b strings.Builder
	for _, para := range strings.Split(text, "\n\n") {
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(html.EscapeString(para), "\n", "<br>"))
		b.WriteString("</p>")
	}
	return b.String()
}
