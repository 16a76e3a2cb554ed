// Command seed loads demo catalog entries into a Supabase project so a fresh
// deployment has something to browse. It talks to PostgREST directly with the
// service role key and bypasses the gateway's moderation flow, so seeded
// entries land already approved.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/appduka/catalog/internal/app/domain/catalog"
	"github.com/appduka/catalog/internal/app/storage/supabaserest"
	"github.com/appduka/catalog/supabase/client"
)

func main() {
	envFile := flag.String("env", ".env", "path to .env with SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		log.Fatalf("load env (%s): %v", *envFile, err)
	}

	url := os.Getenv("SUPABASE_URL")
	key := os.Getenv("SUPABASE_SERVICE_ROLE_KEY")
	if url == "" || key == "" {
		log.Fatal("SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are required")
	}

	c, err := client.New(client.Config{URL: url, APIKey: key})
	if err != nil {
		log.Fatalf("supabase client: %v", err)
	}
	store := supabaserest.New(c)

	ctx := context.Background()
	for _, entry := range demoApps() {
		created, err := store.CreateApp(ctx, entry)
		if err != nil {
			log.Fatalf("seed %q: %v", entry.Name, err)
		}
		log.Printf("seeded %s (%s)", created.Name, created.ID)
	}
}

func demoApps() []catalog.App {
	return []catalog.App{
		{
			Name:             "Duka Letu",
			Version:          "1.2.0",
			Category:         "Shopping",
			Size:             "18 MB",
			IconURL:          "https://placehold.co/96x96/png?text=DL",
			APKURL:           "https://example.com/apk/duka-letu.apk",
			ShortDescription: "Soko la mtandaoni la bidhaa za nyumbani.",
			FullDescription:  "Nunua bidhaa za nyumbani kutoka kwa wauzaji wa karibu nawe, lipia kwa simu na upokee mzigo siku hiyo hiyo.",
			Status:           catalog.StatusApproved,
		},
		{
			Name:             "Safari Njema",
			Version:          "3.0.1",
			Category:         "Travel",
			Size:             "42 MB",
			IconURL:          "https://placehold.co/96x96/png?text=SN",
			APKURL:           "https://example.com/apk/safari-njema.apk",
			ShortDescription: "Tiketi za basi na treni mahali pamoja.",
			FullDescription:  "Linganisha ratiba, kata tiketi na fuatilia safari yako bila kupanga foleni.",
			Status:           catalog.StatusApproved,
		},
		{
			Name:             "Shamba Smart",
			Version:          "0.9.4",
			Category:         "Productivity",
			Size:             "25 MB",
			IconURL:          "https://placehold.co/96x96/png?text=SS",
			APKURL:           "https://example.com/apk/shamba-smart.apk",
			ShortDescription: "Msaidizi wa mkulima wa kisasa.",
			FullDescription:  "Bei za mazao sokoni, utabiri wa hali ya hewa na ushauri wa kilimo kwa lugha rahisi.",
			Status:           catalog.StatusApproved,
		},
	}
}
