package service

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	model "schoolku_backend/internals/features/finance/fee_schedules/model"
)

// Period: satu bucket billing kanonik.
type Period struct {
	// Key format "YYYY-MM" (bulan awal bucket) — dua tanggal dalam bucket
	// yang sama selalu menghasilkan Key identik, bucket bersebelahan
	// menghasilkan Key berbeda dan terurut leksikal.
	Key     string
	Start   time.Time
	DueDate time.Time
}

// anchor default kalau schedule tidak punya start_date: Januari.
// Untuk panjang bucket 1/3/6/12 semua pilihan tahun ekuivalen,
// jadi cukup satu epoch tetap.
var defaultAnchor = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// ComputePeriod memetakan (recurrence, tanggal referensi) ke bucket billing.
// Pure function: tanpa I/O, tanpa state bersama, aman dipanggil konkuren.
//
// referenceDate dinormalisasi ke tanggal 1 bulan tsb (UTC, biar tidak geser
// bulan karena timezone). dueDay dijamin total karena dibatasi 1..28 saat
// schedule dibuat.
func ComputePeriod(recurrence string, startAnchor *time.Time, referenceDate time.Time, dueDay int) (Period, error) {
	months := model.MonthsPerBucket(recurrence)
	if months == 0 {
		return Period{}, fmt.Errorf("recurrence %q tidak dikenal", recurrence)
	}
	if dueDay < 1 || dueDay > 28 {
		return Period{}, fmt.Errorf("due day %d di luar rentang 1..28", dueDay)
	}

	ref := referenceDate.UTC()
	refMonth := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)

	anchor := defaultAnchor
	if startAnchor != nil {
		a := startAnchor.UTC()
		anchor = time.Date(a.Year(), a.Month(), 1, 0, 0, 0, 0, time.UTC)
	}

	// Index bulan sejak anchor; floor division supaya tanggal sebelum anchor
	// tetap jatuh ke bucket yang benar.
	monthsSince := (refMonth.Year()-anchor.Year())*12 + int(refMonth.Month()-anchor.Month())
	bucketStartOffset := floorDiv(monthsSince, months) * months

	start := anchor.AddDate(0, bucketStartOffset, 0)
	return Period{
		Key:     fmt.Sprintf("%04d-%02d", start.Year(), int(start.Month())),
		Start:   start,
		DueDate: time.Date(start.Year(), start.Month(), dueDay, 0, 0, 0, 0, time.UTC),
	}, nil
}

// ComputePeriodForSchedule: convenience — ambil anchor/due day dari model.
func ComputePeriodForSchedule(sch *model.FeeScheduleModel, referenceDate time.Time) (Period, error) {
	return ComputePeriod(sch.FeeScheduleRecurrence, sch.FeeScheduleStartDate, referenceDate, sch.FeeScheduleDueDayOfMonth)
}

// UpcomingDueDates: preview n tanggal jatuh tempo berikutnya mulai dari
// `from` (inklusif), dibangun sebagai RRULE bulanan dengan interval sesuai
// panjang bucket.
func UpcomingDueDates(sch *model.FeeScheduleModel, from time.Time, n int) ([]time.Time, error) {
	if n <= 0 {
		return nil, nil
	}
	months := model.MonthsPerBucket(sch.FeeScheduleRecurrence)
	if months == 0 {
		return nil, fmt.Errorf("recurrence %q tidak dikenal", sch.FeeScheduleRecurrence)
	}

	base, err := ComputePeriodForSchedule(sch, from)
	if err != nil {
		return nil, err
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:       rrule.MONTHLY,
		Interval:   months,
		Bymonthday: []int{sch.FeeScheduleDueDayOfMonth},
		Dtstart:    base.Start,
	})
	if err != nil {
		return nil, err
	}

	out := make([]time.Time, 0, n)
	next := rule.After(from.UTC().Add(-24*time.Hour), true)
	for !next.IsZero() && len(out) < n {
		if sch.FeeScheduleEndDate != nil && next.After(*sch.FeeScheduleEndDate) {
			break
		}
		out = append(out, next)
		next = rule.After(next, false)
	}
	return out, nil
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
