package service

import (
	"fmt"
	"log"
	"time"

	"petcare/internal/repository"
)

// JobService holds the cron jobs: reminder dispatch, pending-checkout expiry
// and past-booking completion.
type JobService struct {
	jobs      *repository.JobRepository
	reminders *repository.ReminderRepository
	sender    *SenderService

	pendingTTL time.Duration
}

func NewJobService(jobs *repository.JobRepository, reminders *repository.ReminderRepository, sender *SenderService, pendingTTL time.Duration) *JobService {
	return &JobService{
		jobs:       jobs,
		reminders:  reminders,
		sender:     sender,
		pendingTTL: pendingTTL,
	}
}

// DispatchDueReminders sends vaccination reminders that reached their due
// date and marks them notified.
func (s *JobService) DispatchDueReminders() error {
	due, err := s.reminders.FindDueUnnotified()
	if err != nil {
		return fmt.Errorf("cron job: find due reminders: %w", err)
	}
	if len(due) == 0 {
		return nil
	}

	log.Printf("Cron Job: dispatching %d vaccination reminders", len(due))

	sent := make([]int, 0, len(due))
	for _, d := range due {
		s.sender.SendVaccinationReminder(d.UserName, d.UserPhone, d.UserEmail, d.PetName, d.VaccineName, d.DueDate)
		sent = append(sent, d.ID)
	}

	if err := s.reminders.MarkNotified(sent); err != nil {
		return fmt.Errorf("cron job: mark reminders notified: %w", err)
	}
	return nil
}

// ExpireStalePending abandons checkouts that never completed.
func (s *JobService) ExpireStalePending() error {
	before := time.Now().Add(-s.pendingTTL)

	n, err := s.jobs.ExpirePendingBookingsOlderThan(before)
	if err != nil {
		return fmt.Errorf("cron job: expire pending bookings: %w", err)
	}
	m, err := s.jobs.ExpirePendingOrdersOlderThan(before)
	if err != nil {
		return fmt.Errorf("cron job: expire pending orders: %w", err)
	}
	if n+m > 0 {
		log.Printf("Cron Job: expired %d pending bookings and %d pending orders", n, m)
	}
	return nil
}

// CompletePastBookings closes paid grooming and hostel bookings whose
// service window ended.
func (s *JobService) CompletePastBookings() error {
	n, err := s.jobs.CompletePastPaidBookings()
	if err != nil {
		return fmt.Errorf("cron job: complete past bookings: %w", err)
	}
	if n > 0 {
		log.Printf("Cron Job: marked %d bookings completed", n)
	}
	return nil
}
