package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/xenking/greenbite/internal/domain/auth"
	"github.com/xenking/greenbite/internal/domain/catalog"
	"github.com/xenking/greenbite/internal/domain/redeem"
	"github.com/xenking/greenbite/internal/domain/user"
	"github.com/xenking/greenbite/internal/storage/postgres"
)

type seedOptions struct {
	databaseURL   string
	apiKey        string
	apiKeyPepper  string
	adminEmail    string
	adminPassword string
	skipCatalog   bool
}

func main() {
	var opts seedOptions

	flag.StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&opts.apiKey, "api-key", "", "admin API key to seed (or GREENBITE_SEED_API_KEY env)")
	flag.StringVar(&opts.apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or GREENBITE_API_KEY_PEPPER env)")
	flag.StringVar(&opts.adminEmail, "admin-email", "admin@greenbite.local", "email of the seeded admin account")
	flag.StringVar(&opts.adminPassword, "admin-password", "", "password of the seeded admin account (or GREENBITE_SEED_ADMIN_PASSWORD env)")
	flag.BoolVar(&opts.skipCatalog, "skip-catalog", false, "do not seed demo shops, items and offers")
	flag.Parse()

	opts.databaseURL = orEnv(opts.databaseURL, "DATABASE_URL")
	opts.apiKey = orEnv(opts.apiKey, "GREENBITE_SEED_API_KEY")
	opts.apiKeyPepper = orEnv(opts.apiKeyPepper, "GREENBITE_API_KEY_PEPPER")
	opts.adminPassword = orEnv(opts.adminPassword, "GREENBITE_SEED_ADMIN_PASSWORD")

	if opts.databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if opts.apiKey == "" {
		slog.Error("API key is required: set --api-key or GREENBITE_SEED_API_KEY")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func orEnv(v, key string) string {
	if v != "" {
		return v
	}
	return os.Getenv(key)
}

func run(ctx context.Context, opts seedOptions) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, opts.databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedAPIKey(ctx, postgres.NewAPIKeyRepository(pool), opts.apiKey, opts.apiKeyPepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	if opts.adminPassword != "" {
		if err := seedAdmin(ctx, postgres.NewUserRepository(pool), opts.adminEmail, opts.adminPassword); err != nil {
			return errors.Wrap(err, "seed admin")
		}
	}

	if opts.skipCatalog {
		return nil
	}
	if err := seedCatalog(ctx, pool); err != nil {
		return errors.Wrap(err, "seed catalog")
	}
	return nil
}

func seedAPIKey(ctx context.Context, keys *postgres.APIKeyRepository, apiKey, pepper string) error {
	slog.Info("seeding admin API key")

	if err := keys.Upsert(ctx, auth.APIKeyInfo{
		ID:      "default",
		KeyHash: auth.HashAPIKey([]byte(pepper), apiKey),
		Name:    "Default admin key",
		Scopes:  []string{auth.ScopeAdmin},
	}); err != nil {
		return errors.Wrap(err, "upsert default API key")
	}

	slog.Info("upserted API key", slog.String("id", "default"))
	return nil
}

func seedAdmin(ctx context.Context, users *postgres.UserRepository, email, password string) error {
	if len(password) < auth.MinPasswordLength {
		return auth.ErrWeakPassword
	}
	hash, err := auth.HashPassword(password, bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	u := &user.User{
		Profile: user.Profile{FirstName: "Admin", Username: "admin", Email: email},
		Role:    user.RoleAdmin,
	}
	if err := users.CreateAccount(ctx, u, hash); err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			slog.Info("admin account already exists", slog.String("email", email))
			return nil
		}
		return err
	}

	slog.Info("created admin account", slog.Int64("id", u.ID), slog.String("email", email))
	return nil
}

type demoShop struct {
	shop  catalog.Shop
	items []catalog.Item
}

func demoCatalog(now time.Time) []demoShop {
	expires := func(d time.Duration) *time.Time {
		t := now.Add(d).UTC()
		return &t
	}
	return []demoShop{
		{
			shop: catalog.Shop{
				Name:             "Green Leaf Bakery",
				Address:          "12 Temple Road, Colombo",
				PhoneNumber:      "+94112345678",
				Email:            "hello@greenleaf.example",
				BusinessName:     "Green Leaf (Pvt) Ltd",
				LicenseExpiresAt: expires(365 * 24 * time.Hour),
				Location:         &catalog.Location{Latitude: 6.9271, Longitude: 79.8612},
			},
			items: []catalog.Item{
				{Name: "Wholegrain Loaf", Price: decimal.RequireFromString("3.50"), Quantity: 20, Category: "Bakery", Tags: []string{"vegan"}},
				{Name: "Day-old Croissants", Price: decimal.RequireFromString("1.20"), Quantity: 35, Category: "Bakery"},
			},
		},
		{
			shop: catalog.Shop{
				Name:             "Harvest Corner",
				Address:          "48 Lake Drive, Kandy",
				PhoneNumber:      "+94812223344",
				Email:            "orders@harvest.example",
				BusinessName:     "Harvest Corner Grocers",
				LicenseExpiresAt: expires(10 * 24 * time.Hour),
				Location:         &catalog.Location{Latitude: 7.2906, Longitude: 80.6337},
			},
			items: []catalog.Item{
				{Name: "Mixed Veg Box", Price: decimal.RequireFromString("6.00"), Quantity: 8, Category: "Produce", Tags: []string{"organic"}},
				{Name: "Ripe Bananas", Price: decimal.RequireFromString("0.80"), Quantity: 50, Category: "Produce"},
			},
		},
	}
}

func demoOffers() []redeem.Offer {
	return []redeem.Offer{
		{Kind: redeem.KindDeal, Title: "Free coffee with any bakery order", Icon: "coffee", Color: "#8D6E63", Cost: 2},
		{Kind: redeem.KindDeal, Title: "Two-for-one veg box", Icon: "basket", Color: "#66BB6A", Cost: 5},
		{Kind: redeem.KindCoupon, Title: "10% off", Icon: "percent", Color: "#26A69A", Cost: 1, Discount: decimal.NewFromInt(10)},
		{Kind: redeem.KindCoupon, Title: "25% off", Icon: "percent", Color: "#FFA726", Cost: 3, Discount: decimal.NewFromInt(25)},
	}
}

// seedCatalog inserts demo shops, items and offers into an empty database.
func seedCatalog(ctx context.Context, pool *pgxpool.Pool) error {
	shops := postgres.NewShopRepository(pool)
	svc := catalog.NewService(shops, postgres.NewItemRepository(pool))

	existing, err := svc.ListShops(ctx)
	if err != nil {
		return errors.Wrap(err, "list shops")
	}
	if len(existing) > 0 {
		slog.Info("catalog already seeded", slog.Int("shops", len(existing)))
		return nil
	}

	for _, d := range demoCatalog(time.Now()) {
		shop := d.shop
		if err := svc.CreateShop(ctx, &shop); err != nil {
			return errors.Wrapf(err, "create shop %q", shop.Name)
		}
		slog.Info("created shop", slog.Int64("id", shop.ID), slog.String("name", shop.Name))

		for _, it := range d.items {
			it.ShopID = shop.ID
			it.Location = shop.Location
			if err := svc.CreateItem(ctx, &it); err != nil {
				return errors.Wrapf(err, "create item %q", it.Name)
			}
			slog.Info("created item", slog.Int64("id", it.ID), slog.String("name", it.Name))
		}
	}

	offers := postgres.NewOfferRepository(pool)
	for _, o := range demoOffers() {
		if err := offers.CreateOffer(ctx, &o); err != nil {
			return errors.Wrapf(err, "create %s %q", o.Kind, o.Title)
		}
		slog.Info("created offer", slog.String("kind", string(o.Kind)), slog.String("title", o.Title))
	}
	return nil
}
