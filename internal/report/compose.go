// Package report turns a user's activity history into a usage report.
//
// The pipeline has three pure steps:
//
//	Compose: user + activities → Description (counts and numbered entries)
//	Render:  Description       → PDF bytes
//	Encode:  PDF bytes         → data:application/pdf;base64,... URI
//
// None of them performs I/O or keeps state between calls, so they are safe
// to call from any number of goroutines. Generate runs all three.
package report

import (
	"strings"

	"github.com/sakif/user-reports/internal/apperror"
	"github.com/sakif/user-reports/internal/model"
)

// NoDetails is shown for activities recorded without details.
const NoDetails = "No details"

// Description is the computed content of a report, ready for rendering.
type Description struct {
	Name          string
	Email         string
	Role          model.Role
	LoginCount    int
	DownloadCount int
	Activities    []Entry
}

// Entry is one numbered line of the activity listing.
type Entry struct {
	Index   int // 1-based position in the source history
	Type    model.ActivityType
	Details string
}

// Compose summarises user and its activity history.
//
// Activities keep their input order. Types other than LOGIN and
// PDF_DOWNLOAD are listed but counted toward neither total. The input slice
// is only read.
func Compose(user *model.User, activities []model.Activity) (*Description, error) {
	if user == nil {
		return nil, &apperror.AppError{
			Err:     apperror.ErrNotFound,
			Message: "report: no user to report on",
		}
	}

	d := &Description{
		Name:       user.Name,
		Email:      user.Email,
		Role:       user.Role,
		Activities: make([]Entry, 0, len(activities)),
	}

	for i, a := range activities {
		switch a.Type {
		case model.ActivityLogin:
			d.LoginCount++
		case model.ActivityPDFDownload:
			d.DownloadCount++
		}

		details := a.Details
		if strings.TrimSpace(details) == "" {
			details = NoDetails
		}
		d.Activities = append(d.Activities, Entry{
			Index:   i + 1,
			Type:    a.Type,
			Details: details,
		})
	}

	return d, nil
}
