package notification

import (
	"fmt"
	"strings"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
)

func applicationLink(app *model.VisaApplication) string {
	return "/visa-applications/" + app.ID.String()
}

func humanize(stage model.WorkflowStage) string {
	return strings.ReplaceAll(string(stage), "_", " ")
}

func Submitted(app *model.VisaApplication) model.Notification {
	return model.Notification{
		UserID:  app.PatientID,
		Type:    model.NotificationApplicationSubmitted,
		Title:   "Visa application submitted",
		Message: fmt.Sprintf("Your medical visa application for %s has been received.", app.CountryCode),
		Link:    applicationLink(app),
	}
}

func StageChanged(app *model.VisaApplication, from, to model.WorkflowStage) model.Notification {
	n := model.Notification{
		UserID:  app.PatientID,
		Type:    model.NotificationStageChanged,
		Title:   "Visa application updated",
		Message: fmt.Sprintf("Your visa application moved from %s to %s.", humanize(from), humanize(to)),
		Link:    applicationLink(app),
	}
	switch to {
	case model.StageRejected:
		n.Type = model.NotificationApplicationRejected
		n.Title = "Visa application rejected"
		if app.RejectionReason != nil {
			n.Message = "Your visa application was rejected: " + *app.RejectionReason
		}
	case model.StageCompleted:
		n.Type = model.NotificationApplicationApproved
		n.Title = "Visa application approved"
		n.Message = "Your visa application has been approved."
	}
	return n
}

func LetterReady(app *model.VisaApplication, verified bool) model.Notification {
	msg := "Your hospital invitation letter is ready."
	if verified {
		msg = "Your hospital invitation letter has been verified."
	}
	return model.Notification{
		UserID:  app.PatientID,
		Type:    model.NotificationLetterReady,
		Title:   "Invitation letter",
		Message: msg,
		Link:    applicationLink(app),
	}
}
