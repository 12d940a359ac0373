package provider

import (
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mailcadence/config"
	"mailcadence/models"
)

func testRegistry(t *testing.T, conf *config.Config) (*Registry, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := models.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return NewRegistry(db, conf), db
}

func TestForOwnerUsesMailboxRow(t *testing.T) {
	reg, db := testRegistry(t, &config.Config{})

	mbox := &models.Mailbox{
		OwnerID:      7,
		FromEmail:    "alex@acme.example",
		FromName:     "Alex",
		SMTPHost:     "smtp.acme.example",
		SMTPPort:     587,
		SMTPUsername: "alex@acme.example",
		SMTPPassword: "secret",
		Verified:     true,
	}
	if err := db.Create(mbox).Error; err != nil {
		t.Fatalf("failed to seed mailbox: %v", err)
	}

	mailer, got, err := reg.ForOwner(7)
	if err != nil {
		t.Fatalf("ForOwner returned error: %v", err)
	}
	if got == nil || got.ID != mbox.ID {
		t.Fatalf("ForOwner returned mailbox %+v, want the seeded row", got)
	}
	acct, ok := mailer.(*Account)
	if !ok {
		t.Fatalf("ForOwner returned %T, want *Account", mailer)
	}
	if acct.FromEmail != "alex@acme.example" || acct.SMTPHost != "smtp.acme.example" {
		t.Errorf("account not built from the mailbox row: %+v", acct)
	}
}

func TestForOwnerFallsBackToDefaultMailbox(t *testing.T) {
	conf := &config.Config{
		DefaultMailbox: config.MailboxConfig{
			FromEmail:    "outreach@ours.example",
			SMTPHost:     "smtp.ours.example",
			SMTPPort:     587,
			SMTPUsername: "outreach@ours.example",
			SMTPPassword: "secret",
		},
	}
	reg, _ := testRegistry(t, conf)

	mailer, mbox, err := reg.ForOwner(42)
	if err != nil {
		t.Fatalf("ForOwner returned error: %v", err)
	}
	if mbox != nil {
		t.Errorf("default mailbox came back with a row: %+v", mbox)
	}
	acct := mailer.(*Account)
	if acct.FromEmail != "outreach@ours.example" {
		t.Errorf("account from = %q, want the default mailbox sender", acct.FromEmail)
	}
}

func TestForOwnerOAuthMailbox(t *testing.T) {
	conf := &config.Config{
		Google: config.OAuthConfig{ClientID: "client", ClientSecret: "secret"},
	}
	reg, db := testRegistry(t, conf)

	mbox := &models.Mailbox{
		OwnerID:           9,
		FromEmail:         "alex@gmail.example",
		SMTPHost:          "smtp.gmail.com",
		SMTPPort:          587,
		SMTPUsername:      "alex@gmail.example",
		OAuthProvider:     "google",
		OAuthRefreshToken: "refresh-token",
		Verified:          true,
	}
	if err := db.Create(mbox).Error; err != nil {
		t.Fatalf("failed to seed mailbox: %v", err)
	}

	mailer, _, err := reg.ForOwner(9)
	if err != nil {
		t.Fatalf("ForOwner returned error: %v", err)
	}
	acct := mailer.(*Account)
	if acct.smtpPassword == nil || acct.imapPassword == nil {
		t.Fatal("OAuth mailbox account has no credential source wired")
	}

	// Same row resolves to the same cached account so the token source is
	// reused across syncs.
	again, _, err := reg.ForOwner(9)
	if err != nil {
		t.Fatalf("second ForOwner returned error: %v", err)
	}
	if again.(*Account) != acct {
		t.Error("account rebuilt for an unchanged mailbox row")
	}
}

func TestForOwnerWithoutAnyMailbox(t *testing.T) {
	reg, _ := testRegistry(t, &config.Config{})

	_, _, err := reg.ForOwner(42)
	if !errors.Is(err, ErrNoMailbox) {
		t.Fatalf("ForOwner error = %v, want ErrNoMailbox", err)
	}
}

func TestInboxOwners(t *testing.T) {
	reg, db := testRegistry(t, &config.Config{
		DefaultMailbox: config.MailboxConfig{
			FromEmail: "outreach@ours.example",
			SMTPHost:  "smtp.ours.example",
			IMAPHost:  "imap.ours.example",
		},
	})

	rows := []*models.Mailbox{
		{OwnerID: 1, FromEmail: "a@x.example", SMTPHost: "s", IMAPHost: "imap.x.example", Verified: true},
		{OwnerID: 2, FromEmail: "b@y.example", SMTPHost: "s", Verified: true}, // no IMAP
		{OwnerID: 3, FromEmail: "c@z.example", SMTPHost: "s", IMAPHost: "imap.z.example", Verified: false},
	}
	for _, r := range rows {
		if err := db.Create(r).Error; err != nil {
			t.Fatalf("failed to seed mailbox: %v", err)
		}
	}

	owners, err := reg.InboxOwners()
	if err != nil {
		t.Fatalf("InboxOwners returned error: %v", err)
	}

	want := map[uint]bool{1: true, 0: true}
	if len(owners) != len(want) {
		t.Fatalf("InboxOwners = %v, want owner 1 and the default mailbox", owners)
	}
	for _, id := range owners {
		if !want[id] {
			t.Errorf("unexpected owner %d in %v", id, owners)
		}
	}
}
