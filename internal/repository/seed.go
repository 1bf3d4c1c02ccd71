package repository

import (
	"fmt"
	"time"

	"github.com/mkraemer/weekmaster/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Seed loads the reference vocabularies and the sample household tasks into
// freshly reset tables. Identities are assigned by insertion order, so the
// deadline and tag links below refer to tasks by their 1-based position.
func Seed(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		priorities := []models.Priority{
			{Name: "Default"}, {Name: "Hoch"}, {Name: "Mittel"}, {Name: "Niedrig"},
		}
		statuses := []models.Status{
			{Name: "Default"}, {Name: models.StatusOpen}, {Name: models.StatusInProgress},
			{Name: "Problem"}, {Name: "Beobachten"}, {Name: "Abstimmung nötig"},
			{Name: models.StatusCompleted},
		}
		users := []models.User{
			{Name: "Default"}, {Name: "MS"}, {Name: "RM"}, {Name: "KM"},
			{Name: "MRK"}, {Name: "MR"}, {Name: "MK"}, {Name: "RK"},
		}
		tags := []models.Tag{
			{Name: "Wohnung"}, {Name: "Garten"}, {Name: "Atelier"}, {Name: "Auto"},
			{Name: "Moped"}, {Name: "Familie"}, {Name: "Arbeit"}, {Name: "Studium"},
			{Name: "Vertraege"}, {Name: "Versicherungen"}, {Name: "Kommunikation"},
			{Name: "Einkauf"}, {Name: "Sonstiges"},
		}
		for _, batch := range []interface{}{&priorities, &statuses, &users, &tags} {
			if err := tx.Create(batch).Error; err != nil {
				return fmt.Errorf("failed to seed reference data: %w", err)
			}
		}

		tasks := []models.Task{
			{Description: "Kuendigungsfrist Hausratversicherung online", HasDeadline: true, PriorityID: 2, UserID: 2, StatusID: 2},
			{Description: "Kuendigungsfrist Haftpflichtversicherung online", HasDeadline: true, PriorityID: 2, UserID: 2, StatusID: 2},
			{Description: "Danke-Email an Domaine schicken", HasDeadline: true, PriorityID: 3, UserID: 2, StatusID: 3},
			{Description: "Bewertung AirBnB Cottbus schreiben", HasDeadline: true, PriorityID: 3, UserID: 2, StatusID: 3},
			{Description: "WhatsApp von Lisa beantworten", PriorityID: 3, UserID: 6, StatusID: 2},
			{Description: "Weihnachten planen", HasDeadline: true, LeadTimeDays: 20, PriorityID: 2, UserID: 5, StatusID: 5},
			{Description: "Anmeldung bei VGBK per Post abschicken", HasDeadline: true, LeadTimeDays: 4, PriorityID: 2, UserID: 2, StatusID: 2},
			{Description: "Anruf Papa wegen Besuch", PriorityID: 2, UserID: 3, StatusID: 2},
			{Description: "Gluehbirne für Backofen kaufen", PriorityID: 3, UserID: 6, StatusID: 4},
			{Description: "Schulhefte besorgen", HasDeadline: true, LeadTimeDays: 4, PriorityID: 2, UserID: 6, StatusID: 3},
			{Description: "Spülmittel im Supermarkt kaufen", PriorityID: 2, UserID: 6, StatusID: 2},
			{Description: "Einladungen zur Feier von K basteln", HasDeadline: true, PriorityID: 2, UserID: 5, StatusID: 6},
			{Description: "Widerspruch bei Krankenkasse einlegen online", HasDeadline: true, PriorityID: 2, UserID: 2, StatusID: 3},
			{Description: "Anruf bei Hausverwaltung wegen Therme", HasDeadline: true, PriorityID: 2, UserID: 6, StatusID: 4},
			{Description: "Praktikumsbescheinigung einholen", HasDeadline: true, PriorityID: 2, UserID: 2, StatusID: 2},
			{Description: "Rueckmeldung Stundenerhoehung geben an Sabine", PriorityID: 2, UserID: 2, StatusID: 6},
			{Description: "Ruecklicht Auto reparieren lassen", PriorityID: 2, UserID: 3, StatusID: 5},
			{Description: "Logopaedie anmelden", PriorityID: 2, UserID: 7, StatusID: 2},
			{Description: "Tag der offenen Tuer Termine notieren", HasDeadline: true, PriorityID: 2, UserID: 6, StatusID: 2},
			{Description: "Rueckmeldung KuBiz beobachten", HasDeadline: true, PriorityID: 2, UserID: 6, StatusID: 5},
			{Description: "Zugtickets buchen fuer Mainz", HasDeadline: true, PriorityID: 2, UserID: 6, StatusID: 2},
		}
		if err := tx.Create(&tasks).Error; err != nil {
			return fmt.Errorf("failed to seed tasks: %w", err)
		}

		dueDates := map[int]string{
			1: "2025-10-01", 2: "2025-10-15", 3: "2025-09-30", 4: "2025-09-30",
			6: "2025-12-15", 7: "2025-10-30", 10: "2025-09-08", 12: "2025-09-08",
			13: "2025-09-15", 14: "2025-09-08", 15: "2025-10-15", 19: "2025-09-15",
			20: "2025-09-25", 21: "2025-09-11",
		}
		for pos, due := range dueDates {
			day, err := time.Parse("2006-01-02", due)
			if err != nil {
				return err
			}
			deadline := models.Deadline{TaskID: tasks[pos-1].ID, DueDate: datatypes.Date(day)}
			if err := tx.Create(&deadline).Error; err != nil {
				return fmt.Errorf("failed to seed deadlines: %w", err)
			}
		}

		tagLinks := map[int][]uint{
			1: {10, 1}, 2: {10, 1}, 3: {11}, 4: {11}, 5: {6}, 6: {6}, 7: {7},
			8: {6}, 9: {1, 12}, 10: {6, 12}, 11: {1, 12}, 12: {6}, 13: {10},
			14: {1}, 15: {8}, 16: {7}, 17: {4}, 18: {6}, 19: {8}, 20: {8}, 21: {12},
		}
		for pos, tagIDs := range tagLinks {
			for _, tagID := range tagIDs {
				link := models.TaskTag{TaskID: tasks[pos-1].ID, TagID: tags[tagID-1].ID}
				if err := tx.Create(&link).Error; err != nil {
					return fmt.Errorf("failed to seed tag links: %w", err)
				}
			}
		}

		return nil
	})
}
