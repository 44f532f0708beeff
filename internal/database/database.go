package database

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mlevchik/mnemo/internal/entities"
)

// defaultNoteTypes are seeded into fresh collections so imports have a
// schema to target out of the box.
var defaultNoteTypes = []entities.NoteType{
	{
		Name:        "Basic",
		KeyFieldOrd: 0,
		Fields: []entities.NoteTypeField{
			{Ord: 0, Name: "Front"},
			{Ord: 1, Name: "Back"},
		},
		Templates: []entities.CardTemplate{
			{Ord: 0, Name: "Card 1"},
		},
	},
	{
		Name:        "Basic (reversed)",
		KeyFieldOrd: 0,
		Fields: []entities.NoteTypeField{
			{Ord: 0, Name: "Front"},
			{Ord: 1, Name: "Back"},
		},
		Templates: []entities.CardTemplate{
			{Ord: 0, Name: "Card 1"},
			{Ord: 1, Name: "Card 2"},
		},
	},
	{
		Name:        "Vocabulary",
		KeyFieldOrd: 0,
		Fields: []entities.NoteTypeField{
			{Ord: 0, Name: "Word"},
			{Ord: 1, Name: "Meaning"},
			{Ord: 2, Name: "Example"},
		},
		Templates: []entities.CardTemplate{
			{Ord: 0, Name: "Recognition"},
		},
	},
}

type Database struct {
	DB *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.NoteType{},
		&entities.NoteTypeField{},
		&entities.CardTemplate{},
		&entities.Note{},
		&entities.Card{},
		&entities.Tag{},
		&entities.User{},
		&entities.ImportSession{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	database := &Database{DB: db}

	if err := database.seedNoteTypes(); err != nil {
		return nil, fmt.Errorf("failed to seed note types: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return database, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *Database) seedNoteTypes() error {
	for i := range defaultNoteTypes {
		nt := defaultNoteTypes[i]
		var existing entities.NoteType
		result := d.DB.Where("name = ?", nt.Name).First(&existing)
		if result.Error == gorm.ErrRecordNotFound {
			if err := d.DB.Create(&nt).Error; err != nil {
				return fmt.Errorf("failed to create note type %s: %w", nt.Name, err)
			}
			log.Printf("Created note type: %s", nt.Name)
		}
	}
	return nil
}
