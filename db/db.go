package db

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/techagentng/challanx/config"
	"github.com/techagentng/challanx/logger"
	"github.com/techagentng/challanx/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type GormDB struct {
	DB *gorm.DB
}

func GetDB(c *config.Config) *GormDB {
	gormDB := &GormDB{}
	gormDB.Init(c)
	return gormDB
}

func (g *GormDB) Init(c *config.Config) {
	g.DB = getPostgresDB(c)

	if err := migrate(g.DB); err != nil {
		logger.Log.Fatal().Err(err).Msg("unable to run migrations")
	}
}

func getPostgresDB(c *config.Config) *gorm.DB {
	logger.Log.Info().
		Str("host", c.PostgresHost).
		Int("port", c.PostgresPort).
		Str("db", c.PostgresDB).
		Msg("connecting to postgres")
	postgresDSN := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresPort)

	gormConfig := &gorm.Config{}
	if c.Env != "prod" {
		gormConfig.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	}
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		DSN: postgresDSN,
	}), gormConfig)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("unable to connect to postgres")
	}

	return gormDB
}

func SeedPlans(db *gorm.DB) error {
	plans := []models.SubscriptionPlan{
		{Model: models.Model{ID: uuid.New()}, Name: "Monthly", Price: decimal.NewFromInt(99), DurationMonths: 1},
		{Model: models.Model{ID: uuid.New()}, Name: "Quarterly", Price: decimal.NewFromInt(249), DurationMonths: 3},
		{Model: models.Model{ID: uuid.New()}, Name: "Yearly", Price: decimal.NewFromInt(899), DurationMonths: 12},
	}

	for _, plan := range plans {
		if err := db.FirstOrCreate(&plan, models.SubscriptionPlan{Name: plan.Name}).Error; err != nil {
			return err
		}
	}

	return nil
}

func migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Profile{},
		&models.Report{},
		&models.Votes{},
		&models.VoteTally{},
		&models.ChallanPayment{},
		&models.RewardTransaction{},
		&models.SubscriptionPlan{},
		&models.StatusTransition{},
	)
	if err != nil {
		return fmt.Errorf("migrations error: %v", err)
	}

	if err := SeedPlans(db); err != nil {
		return fmt.Errorf("seeding plans error: %v", err)
	}

	return nil
}
