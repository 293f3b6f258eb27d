package notify

import (
	"bytes"
	"fmt"
	htmltmpl "html/template"
	"net/mail"
	texttmpl "text/template"

	"github.com/studia-dev/classhub-api/internal/models"
	mailpkg "github.com/studia-dev/classhub-api/pkg/mail"
)

type templatePair struct {
	text *texttmpl.Template
	html *htmltmpl.Template
}

var (
	welcomeTmpl = mustPair("welcome", welcomeText, welcomeHTML)
	submitTmpl  = mustPair("submitted", submittedText, submittedHTML)
	gradeTmpl   = mustPair("graded", gradedText, gradedHTML)
)

func mustPair(name, text, html string) templatePair {
	return templatePair{
		text: texttmpl.Must(texttmpl.New(name + ".txt").Parse(text)),
		html: htmltmpl.Must(htmltmpl.New(name + ".html").Parse(html)),
	}
}

func (p templatePair) render(data interface{}) (string, string, error) {
	var textBuf, htmlBuf bytes.Buffer
	if err := p.text.Execute(&textBuf, data); err != nil {
		return "", "", fmt.Errorf("render text template: %w", err)
	}
	if err := p.html.Execute(&htmlBuf, data); err != nil {
		return "", "", fmt.Errorf("render html template: %w", err)
	}
	return textBuf.String(), htmlBuf.String(), nil
}

type welcomeContext struct {
	StudentName    string
	ClassroomTitle string
	Description    string
	Subject        string
	TeacherName    string
	TeacherEmail   string
	JoinCode       string
	SiteURL        string
}

type submittedContext struct {
	TeacherName    string
	StudentName    string
	StudentEmail   string
	ProjectTitle   string
	ClassroomTitle string
	RepositoryURL  string
	DeployedURL    string
	Collaborators  []models.UserInfo
	SiteURL        string
}

type gradedContext struct {
	StudentName    string
	TeacherName    string
	ProjectTitle   string
	ClassroomTitle string
	Grade          int
	Notes          string
	Passing        bool
	Description    string
	SiteURL        string
}

// Messages composes the outbound emails for an event. Graded events fan out
// to one message per participant.
func Messages(event Event, siteURL string) ([]mailpkg.Message, error) {
	switch event.Type {
	case EventMembershipCreated:
		return welcomeMessages(event, siteURL)
	case EventSubmissionSubmitted:
		return submittedMessages(event, siteURL)
	case EventSubmissionGraded:
		return gradedMessages(event, siteURL)
	default:
		return nil, fmt.Errorf("unknown event type %q", event.Type)
	}
}

func welcomeMessages(event Event, siteURL string) ([]mailpkg.Message, error) {
	text, html, err := welcomeTmpl.render(welcomeContext{
		StudentName:    event.Student.FullName,
		ClassroomTitle: event.Classroom.Title,
		Description:    event.Classroom.Description,
		Subject:        event.Classroom.Subject,
		TeacherName:    event.Teacher.FullName,
		TeacherEmail:   event.Teacher.Email,
		JoinCode:       event.Classroom.JoinCode,
		SiteURL:        siteURL,
	})
	if err != nil {
		return nil, err
	}
	return []mailpkg.Message{{
		To:       []mail.Address{{Name: event.Student.FullName, Address: event.Student.Email}},
		Subject:  fmt.Sprintf("Welcome to %s!", event.Classroom.Title),
		TextBody: text,
		HTMLBody: html,
	}}, nil
}

func submittedMessages(event Event, siteURL string) ([]mailpkg.Message, error) {
	sub := event.Submission
	deployed := ""
	if sub.DeployedURL != nil {
		deployed = *sub.DeployedURL
	}
	text, html, err := submitTmpl.render(submittedContext{
		TeacherName:    event.Teacher.FullName,
		StudentName:    sub.CreatorName,
		StudentEmail:   sub.CreatorEmail,
		ProjectTitle:   sub.Title,
		ClassroomTitle: event.Classroom.Title,
		RepositoryURL:  sub.RepositoryURL,
		DeployedURL:    deployed,
		Collaborators:  sub.Collaborators,
		SiteURL:        siteURL,
	})
	if err != nil {
		return nil, err
	}
	return []mailpkg.Message{{
		To:       []mail.Address{{Name: event.Teacher.FullName, Address: event.Teacher.Email}},
		Subject:  fmt.Sprintf("[%s] New Project Submission: %s", event.Classroom.Title, sub.Title),
		TextBody: text,
		HTMLBody: html,
	}}, nil
}

func gradedMessages(event Event, siteURL string) ([]mailpkg.Message, error) {
	sub := event.Submission
	if sub.Grade == nil {
		return nil, fmt.Errorf("graded event without grade for submission %s", sub.ID)
	}
	grade := *sub.Grade
	notes := ""
	if sub.TeacherNotes != nil {
		notes = *sub.TeacherNotes
	}

	messages := make([]mailpkg.Message, 0, len(sub.Collaborators)+1)
	for _, recipient := range sub.Participants() {
		text, html, err := gradeTmpl.render(gradedContext{
			StudentName:    recipient.FullName,
			TeacherName:    event.Teacher.FullName,
			ProjectTitle:   sub.Title,
			ClassroomTitle: event.Classroom.Title,
			Grade:          grade,
			Notes:          notes,
			Passing:        grade >= 10,
			Description:    gradeDescription(grade),
			SiteURL:        siteURL,
		})
		if err != nil {
			return nil, err
		}
		messages = append(messages, mailpkg.Message{
			To:       []mail.Address{{Name: recipient.FullName, Address: recipient.Email}},
			Subject:  fmt.Sprintf("[%s] Your Project Has Been Graded: %d/20", event.Classroom.Title, grade),
			TextBody: text,
			HTMLBody: html,
		})
	}
	return messages, nil
}

// gradeDescription maps a 20-point grade to the French appreciation scale.
func gradeDescription(grade int) string {
	switch {
	case grade >= 16:
		return "Tres Bien (Excellent)"
	case grade >= 14:
		return "Bien (Good)"
	case grade >= 12:
		return "Assez Bien (Fairly Good)"
	case grade >= 10:
		return "Passable (Pass)"
	default:
		return "Insuffisant (Fail)"
	}
}

const welcomeText = `Hi {{.StudentName}},

You have joined {{.ClassroomTitle}}{{if .Subject}} ({{.Subject}}){{end}}.

{{.Description}}

Your teacher is {{.TeacherName}} ({{.TeacherEmail}}).
Join code: {{.JoinCode}}

Visit {{.SiteURL}} to create your project submission.
`

const welcomeHTML = `<p>Hi {{.StudentName}},</p>
<p>You have joined <strong>{{.ClassroomTitle}}</strong>{{if .Subject}} ({{.Subject}}){{end}}.</p>
<p>{{.Description}}</p>
<p>Your teacher is {{.TeacherName}} (<a href="mailto:{{.TeacherEmail}}">{{.TeacherEmail}}</a>).<br>
Join code: <code>{{.JoinCode}}</code></p>
<p><a href="{{.SiteURL}}">Create your project submission</a></p>
`

const submittedText = `Hi {{.TeacherName}},

{{.StudentName}} ({{.StudentEmail}}) submitted "{{.ProjectTitle}}" in {{.ClassroomTitle}}.

Repository: {{.RepositoryURL}}
{{if .DeployedURL}}Deployed: {{.DeployedURL}}
{{end}}{{if .Collaborators}}Collaborators:{{range .Collaborators}}
  - {{.FullName}} ({{.Email}}){{end}}
{{end}}
Review it at {{.SiteURL}}.
`

const submittedHTML = `<p>Hi {{.TeacherName}},</p>
<p>{{.StudentName}} ({{.StudentEmail}}) submitted <strong>{{.ProjectTitle}}</strong> in {{.ClassroomTitle}}.</p>
<p>Repository: <a href="{{.RepositoryURL}}">{{.RepositoryURL}}</a>{{if .DeployedURL}}<br>
Deployed: <a href="{{.DeployedURL}}">{{.DeployedURL}}</a>{{end}}</p>
{{if .Collaborators}}<p>Collaborators:</p><ul>{{range .Collaborators}}<li>{{.FullName}} ({{.Email}})</li>{{end}}</ul>{{end}}
<p><a href="{{.SiteURL}}">Review the submission</a></p>
`

const gradedText = `Hi {{.StudentName}},

Your project "{{.ProjectTitle}}" in {{.ClassroomTitle}} has been graded by {{.TeacherName}}.

Grade: {{.Grade}}/20 - {{.Description}}
{{if .Notes}}
Teacher notes:
{{.Notes}}
{{end}}
See your grades at {{.SiteURL}}.
`

const gradedHTML = `<p>Hi {{.StudentName}},</p>
<p>Your project <strong>{{.ProjectTitle}}</strong> in {{.ClassroomTitle}} has been graded by {{.TeacherName}}.</p>
<p>Grade: <strong>{{.Grade}}/20</strong> &mdash; {{.Description}}</p>
{{if .Notes}}<p>Teacher notes:</p><blockquote>{{.Notes}}</blockquote>{{end}}
<p><a href="{{.SiteURL}}">See your grades</a></p>
`
