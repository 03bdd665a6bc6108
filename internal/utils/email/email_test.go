package email

import (
	"errors"
	"io"
	"testing"

	"github.com/Dan9191/balancify/internal/config"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSender(send func(*email.Email) error) *Sender {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewSender(&config.Config{SenderEmail: "noreply@balancify.local"}, log).WithTransport(send)
}

func TestSendAnalysisReport(t *testing.T) {
	var sent *email.Email
	s := newSender(func(e *email.Email) error {
		sent = e
		return nil
	})

	err := s.SendAnalysisReport("user@example.com", "q-1", "Needs 51%, wants 49%.", []byte("<report/>"))
	require.NoError(t, err)
	require.NotNil(t, sent)

	assert.Equal(t, "noreply@balancify.local", sent.From)
	assert.Equal(t, []string{"user@example.com"}, sent.To)
	assert.Contains(t, string(sent.Text), "Needs 51%, wants 49%.")
	assert.Contains(t, string(sent.Text), "Questionnaire: q-1")
	require.Len(t, sent.Attachments, 1)
	assert.Equal(t, "balancify-report-q-1.xml", sent.Attachments[0].Filename)
	assert.Equal(t, []byte("<report/>"), sent.Attachments[0].Content)
}

func TestSendAnalysisReport_Errors(t *testing.T) {
	s := newSender(func(*email.Email) error { return errors.New("smtp down") })
	err := s.SendAnalysisReport("user@example.com", "q-1", "", []byte("<report/>"))
	assert.ErrorContains(t, err, "smtp down")

	called := false
	s = newSender(func(*email.Email) error { called = true; return nil })
	err = s.SendAnalysisReport("not an address", "q-1", "", nil)
	assert.Error(t, err)
	assert.False(t, called)
}
