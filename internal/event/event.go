package event

import (
	"fmt"
	"log"
)

type S3Record struct {
	EventName string `json:"eventName"`
	S3        struct {
		Bucket struct {
			Name string `json:"name"`
		} `json:"bucket"`
		Object struct {
			Key string `json:"key"`
		} `json:"object"`
	} `json:"s3"`
}

type S3ObjectCreatedEvent struct {
	Records []S3Record `json:"Records"`
}

// Record is the decoded view of a single S3 notification record.
type Record struct {
	EventName string
	Bucket    string
	Key       string
}

// MalformedEventError indicates a notification payload that cannot be decoded.
type MalformedEventError struct {
	Reason string
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed s3 event: %s", e.Reason)
}

// Decode extracts the bucket name, object key and event name from the first
// record of an S3 notification. Exactly one record is expected per invocation;
// additional records are ignored with a warning.
func Decode(evt S3ObjectCreatedEvent) (Record, error) {
	if len(evt.Records) == 0 {
		return Record{}, &MalformedEventError{Reason: "no records in payload"}
	}
	if len(evt.Records) > 1 {
		log.Printf("warning: received %d records, only the first is processed", len(evt.Records))
	}

	r := evt.Records[0]
	record := Record{
		EventName: r.EventName,
		Bucket:    r.S3.Bucket.Name,
		Key:       r.S3.Object.Key,
	}

	switch {
	case record.Bucket == "":
		return Record{}, &MalformedEventError{Reason: "record is missing bucket name"}
	case record.Key == "":
		return Record{}, &MalformedEventError{Reason: "record is missing object key"}
	case record.EventName == "":
		return Record{}, &MalformedEventError{Reason: "record is missing event name"}
	}

	return record, nil
}
