package email

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMIMEMessage(t *testing.T) {
	data := EmailData{
		To:       "b@x.com",
		From:     "noreply@biz.example.com",
		FromName: "Biz",
		Subject:  "Einladung zu Müller GmbH",
		Category: "invite",
	}
	now := time.Date(2025, time.May, 14, 10, 0, 0, 0, time.UTC)
	text := strings.Repeat("plain body ", 20)

	raw, err := buildMIMEMessage(data, "<p>html body</p>", text, now)
	require.NoError(t, err)

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)

	subject, err := new(mime.WordDecoder).DecodeHeader(msg.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, data.Subject, subject)
	assert.Equal(t, "invite", msg.Header.Get("X-Category"))

	from, err := msg.Header.AddressList("From")
	require.NoError(t, err)
	assert.Equal(t, "Biz", from[0].Name)

	date, err := msg.Header.Date()
	require.NoError(t, err)
	assert.True(t, now.Equal(date))

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/alternative", mediaType)

	mr := multipart.NewReader(msg.Body, params["boundary"])
	var bodies []string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		decoded, err := io.ReadAll(base64.NewDecoder(base64.StdEncoding, part))
		require.NoError(t, err)
		bodies = append(bodies, string(decoded))
	}
	assert.Equal(t, []string{text, "<p>html body</p>"}, bodies)
}

func TestSendgridMessage(t *testing.T) {
	msg := sendgridMessage(EmailData{To: "b@x.com", From: "a@x.com", Subject: "Hi", Category: "invite"}, "<p>x</p>", "x")
	assert.Equal(t, []string{"invite"}, msg.Categories)
	assert.Equal(t, "Hi", msg.Subject)
}
