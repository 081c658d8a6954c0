package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// HitField marks an Info record as a HIT record.
const HitField = "hit"

const (
	timestampFormat = "15:04:05.000"
	dataIndent      = "                "
)

// sessionFormatter renders records as `[15:04:05.000] [ INFO] message`
// followed by the record's fields as indented JSON.
type sessionFormatter struct{}

func (sessionFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer
	fmt.Fprintf(&b, "[%s] [%5s] %s\n", entry.Time.Format(timestampFormat), levelLabel(entry), entry.Message)

	data := make(logrus.Fields, len(entry.Data))
	for k, v := range entry.Data {
		if k == HitField {
			continue
		}
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		data[k] = v
	}
	if len(data) == 0 {
		return b.Bytes(), nil
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshal fields")
	}
	for _, line := range strings.Split(string(raw), "\n") {
		b.WriteString(dataIndent)
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.Bytes(), nil
}

func levelLabel(entry *logrus.Entry) string {
	if _, ok := entry.Data[HitField]; ok {
		return "HIT"
	}
	switch entry.Level {
	case logrus.DebugLevel, logrus.TraceLevel:
		return "DEBUG"
	case logrus.InfoLevel:
		return "INFO"
	case logrus.WarnLevel:
		return "WARN"
	default:
		return "ERROR"
	}
}

// Hit writes the HIT record for an available username.
func Hit(log logrus.FieldLogger, username string) {
	log.WithField(HitField, true).Info("Available: " + username)
}
