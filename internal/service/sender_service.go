package service

import (
	"bytes"
	"fmt"
	"html/template"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"fieldservice/internal/db"
	"fieldservice/internal/entities"
)

type SenderService struct {
	logger *zap.Logger
}

func NewSenderService(logger *zap.Logger) *SenderService {
	return &SenderService{logger: logger}
}

// SendScheduleConfirmation emails and texts the customer once their work order
// is scheduled. Delivery runs asynchronously; failures are logged, never
// surfaced to the scheduling flow.
func (s *SenderService) SendScheduleConfirmation(wo *db.WorkOrder, start, end time.Time, crewSize int) {
	emailData := entities.ScheduleEmailData{
		CustomerName:   wo.CustomerName,
		WorkOrderCode:  wo.Code,
		JobTitle:       wo.Title,
		StartFormatted: start.Format("02 Jan 2006 15:04 MST"),
		EndFormatted:   end.Format("02 Jan 2006 15:04 MST"),
		CrewSize:       crewSize,
		CurrentYear:    time.Now().Year(),
	}

	crewNote := ""
	if crewSize > 1 {
		crewNote = fmt.Sprintf("A crew of %d technicians will be on site.\n", crewSize)
	}

	emailSubject := fmt.Sprintf("Your job is scheduled - %s", wo.Code)
	plainTextBody := fmt.Sprintf(
		"Hello %s,\n\nYour job %q has been scheduled.\n\n"+
			"Work order: %s\n"+
			"Arrival window: %s - %s\n"+
			"%s\n"+
			"Thank you for your business.",
		emailData.CustomerName, emailData.JobTitle, emailData.WorkOrderCode,
		emailData.StartFormatted, emailData.EndFormatted, crewNote,
	)

	htmlBody := ""
	tmplPath := filepath.Join("internal", "templates", "schedule_email.html")
	tmpl, err := template.ParseFiles(tmplPath)
	if err != nil {
		s.logger.Warn("failed to parse schedule email template", zap.String("path", tmplPath), zap.Error(err))
	} else {
		var htmlBodyBuffer bytes.Buffer
		if err := tmpl.Execute(&htmlBodyBuffer, emailData); err != nil {
			s.logger.Warn("failed to render schedule email", zap.String("work_order", wo.Code), zap.Error(err))
		}
		htmlBody = htmlBodyBuffer.String()
	}

	go func() {
		if err := SendEmailWithSendGrid(wo.CustomerEmail, wo.CustomerName, emailSubject, plainTextBody, htmlBody); err != nil {
			s.logger.Warn("confirmation email failed",
				zap.String("work_order", wo.Code),
				zap.String("to", wo.CustomerEmail),
				zap.Error(err),
			)
		}
	}()

	if wo.CustomerPhone != "" {
		smsMessage := fmt.Sprintf("Work order %s is scheduled!\nArrival: %s.\nDetails in your email.",
			wo.Code, start.Format("02/01 15:04"))
		go func() {
			if err := SendSMS(wo.CustomerPhone, smsMessage); err != nil {
				s.logger.Warn("confirmation SMS failed",
					zap.String("work_order", wo.Code),
					zap.String("to", wo.CustomerPhone),
					zap.Error(err),
				)
			}
		}()
	}
}

// SendCancellationNotice tells the customer a scheduled work order was called
// off, including whether a deposit refund was issued.
func (s *SenderService) SendCancellationNotice(wo *db.WorkOrder, refunded bool) {
	refundNote := ""
	if refunded {
		refundNote = " Your deposit has been refunded."
	}
	subject := fmt.Sprintf("Your job was cancelled - %s", wo.Code)
	body := fmt.Sprintf("Hello %s,\n\nWork order %s (%s) has been cancelled.%s\n\nThank you.",
		wo.CustomerName, wo.Code, wo.Title, refundNote)

	go func() {
		if err := SendEmailWithSendGrid(wo.CustomerEmail, wo.CustomerName, subject, body, ""); err != nil {
			s.logger.Warn("cancellation email failed", zap.String("work_order", wo.Code), zap.Error(err))
		}
	}()
}
