package event

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the variant of an event ID.
type Kind int

const (
	KindEnrollment Kind = iota + 1
	KindSystem
	KindCustom
	KindStudyBurst
	KindSessionFinished
	KindSurveyFinished
	KindQuestionAnswered
)

const (
	enrollmentName = "enrollment"

	customPrefix     = "custom"
	studyBurstPrefix = "study_burst"
	sessionPrefix    = "session"
	surveyPrefix     = "survey"
	questionPrefix   = "question"

	finishedVerb = "finished"
	answeredVerb = "answered"
)

// System events recognised without a prefix.
const (
	TimelineRetrieved = "timeline_retrieved"
	CreatedOn         = "created_on"
	FirstSignIn       = "first_sign_in"
	InstallLinkSent   = "install_link_sent"
)

var systemNames = map[string]bool{
	TimelineRetrieved: true,
	CreatedOn:         true,
	FirstSignIn:       true,
	InstallLinkSent:   true,
}

// ID is a parsed activity event identifier. Build one with the constructors
// below or with Parse; String renders the wire form.
type ID struct {
	kind       Kind
	key        string
	occurrence int
	answer     string
}

func Enrollment() ID { return ID{kind: KindEnrollment, key: enrollmentName} }

// System returns a fixed, unprefixed system event such as timeline_retrieved.
func System(name string) ID { return ID{kind: KindSystem, key: name} }

func Custom(key string) ID { return ID{kind: KindCustom, key: key} }

// StudyBurst returns the event for the given 1-based burst occurrence.
func StudyBurst(burstID string, occurrence int) ID {
	return ID{kind: KindStudyBurst, key: burstID, occurrence: occurrence}
}

func SessionFinished(guid string) ID { return ID{kind: KindSessionFinished, key: guid} }

func SurveyFinished(guid string) ID { return ID{kind: KindSurveyFinished, key: guid} }

func QuestionAnswered(guid, answer string) ID {
	return ID{kind: KindQuestionAnswered, key: guid, answer: answer}
}

func (id ID) Kind() Kind { return id.kind }

// Key is the custom key, burst ID, system name or object GUID depending on the kind.
func (id ID) Key() string { return id.key }

// Occurrence is the burst occurrence number; zero for other kinds.
func (id ID) Occurrence() int { return id.occurrence }

// Answer is the answer value of a question_answered event.
func (id ID) Answer() string { return id.answer }

func (id ID) IsZero() bool { return id.kind == 0 }

func (id ID) String() string {
	switch id.kind {
	case KindEnrollment, KindSystem:
		return id.key
	case KindCustom:
		return customPrefix + ":" + id.key
	case KindStudyBurst:
		return fmt.Sprintf("%s:%s:%02d", studyBurstPrefix, id.key, id.occurrence)
	case KindSessionFinished:
		return sessionPrefix + ":" + id.key + ":" + finishedVerb
	case KindSurveyFinished:
		return surveyPrefix + ":" + id.key + ":" + finishedVerb
	case KindQuestionAnswered:
		return questionPrefix + ":" + id.key + ":" + answeredVerb + "=" + id.answer
	default:
		return ""
	}
}

func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Parse decodes the wire form of an event ID. It is strict: bare keys that are
// not enrollment or a system event are rejected. See ParseClientKey.
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ID{}, fmt.Errorf("%w: empty", ErrInvalidEventID)
	}
	parts := strings.Split(s, ":")
	head := strings.ToLower(parts[0])

	switch {
	case len(parts) == 1 && head == enrollmentName:
		return Enrollment(), nil
	case len(parts) == 1 && systemNames[head]:
		return System(head), nil
	case head == customPrefix && len(parts) == 2 && parts[1] != "":
		return Custom(parts[1]), nil
	case head == studyBurstPrefix && len(parts) == 3 && parts[1] != "":
		n, err := strconv.Atoi(parts[2])
		if err != nil || n < 1 {
			return ID{}, fmt.Errorf("%w: bad burst occurrence in %q", ErrInvalidEventID, s)
		}
		return StudyBurst(parts[1], n), nil
	case (head == sessionPrefix || head == surveyPrefix) && len(parts) == 3 && parts[1] != "":
		if strings.ToLower(parts[2]) != finishedVerb {
			return ID{}, fmt.Errorf("%w: unsupported verb in %q", ErrInvalidEventID, s)
		}
		if head == sessionPrefix {
			return SessionFinished(parts[1]), nil
		}
		return SurveyFinished(parts[1]), nil
	case head == questionPrefix && len(parts) >= 3 && parts[1] != "":
		// Answers may themselves contain ':'.
		verb, answer, ok := strings.Cut(strings.Join(parts[2:], ":"), "=")
		if !ok || strings.ToLower(verb) != answeredVerb {
			return ID{}, fmt.Errorf("%w: unsupported verb in %q", ErrInvalidEventID, s)
		}
		return QuestionAnswered(parts[1], answer), nil
	}
	return ID{}, fmt.Errorf("%w: %q", ErrInvalidEventID, s)
}

// ParseClientKey normalizes an event key supplied by a client. A bare key that
// is not a known system event is treated as a custom event key, and an
// existing custom: prefix is kept as-is rather than doubled.
func ParseClientKey(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if id, err := Parse(s); err == nil {
		return id, nil
	}
	if s == "" || strings.Contains(s, ":") {
		return ID{}, fmt.Errorf("%w: %q", ErrInvalidEventID, s)
	}
	return Custom(s), nil
}
