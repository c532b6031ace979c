package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pasearch/trackd/pkg/client"
	"github.com/pasearch/trackd/pkg/session"
	"github.com/pasearch/trackd/pkg/types"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <imei>",
	Short: "Look up a reported device by IMEI",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openSession(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx, cancel := context.WithTimeout(context.Background(), cfg.API.Timeout)
		defer cancel()

		dev, err := newClient(cfg, store).DeviceByIMEI(ctx, args[0])
		if err != nil {
			return fmt.Errorf("lookup failed: %v", err)
		}

		fmt.Printf("IMEI:       %s\n", dev.IMEI)
		fmt.Printf("Status:     %s\n", dev.Status)
		if dev.Address != "" {
			fmt.Printf("Last seen:  %s\n", dev.Address)
		}
		if dev.HasFix {
			fmt.Printf("Position:   %.5f, %.5f\n", dev.Latitude, dev.Longitude)
		}
		if !dev.TrackedAt.IsZero() {
			fmt.Printf("Tracked at: %s\n", dev.TrackedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Report a device as lost or stolen",
	RunE: func(cmd *cobra.Command, args []string) error {
		imei, _ := cmd.Flags().GetString("imei")
		brand, _ := cmd.Flags().GetString("brand")
		model, _ := cmd.Flags().GetString("model")
		description, _ := cmd.Flags().GetString("description")
		location, _ := cmd.Flags().GetString("location")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openSession(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		guard := session.NewGuard(store, nil, session.GuardConfig{
			Grace: cfg.Session.GraceBuffer,
		})
		sess, _ := store.Load()
		if guard.Authorize(sess, types.RoleReporter, types.RolePolice, types.RoleAdmin) != session.Allow {
			return fmt.Errorf("no valid session, run `trackd login` first")
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.API.Timeout)
		defer cancel()

		err = newClient(cfg, store).ReportDevice(ctx, client.DeviceReport{
			IMEI:        imei,
			Brand:       brand,
			Model:       model,
			Description: description,
			Location:    location,
		})
		if err != nil {
			return fmt.Errorf("report failed: %v", err)
		}
		fmt.Printf("Device %s reported\n", imei)
		return nil
	},
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List all reported devices (admin)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openSession(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		guard := session.NewGuard(store, nil, session.GuardConfig{
			Grace: cfg.Session.GraceBuffer,
		})
		sess, _ := store.Load()
		switch guard.Authorize(sess, types.RoleAdmin) {
		case session.DenyNoSession:
			return fmt.Errorf("no valid session, run `trackd login` first")
		case session.DenyWrongRole:
			return fmt.Errorf("listing all devices requires an admin session")
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.API.Timeout)
		defer cancel()

		devices, err := newClient(cfg, store).AllDevices(ctx)
		if err != nil {
			return fmt.Errorf("listing devices failed: %v", err)
		}

		fmt.Printf("%-18s %-22s %s\n", "IMEI", "STATUS", "LAST SEEN")
		for _, dev := range devices {
			seen := dev.Address
			if seen == "" && !dev.TrackedAt.IsZero() {
				seen = dev.TrackedAt.Format("2006-01-02 15:04")
			}
			fmt.Printf("%-18s %-22s %s\n", dev.IMEI, dev.Status, seen)
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().String("imei", "", "device IMEI")
	reportCmd.Flags().String("brand", "", "device brand")
	reportCmd.Flags().String("model", "", "device model")
	reportCmd.Flags().String("description", "", "what happened")
	reportCmd.Flags().String("location", "", "where the device was lost")
	reportCmd.MarkFlagRequired("imei")
}
