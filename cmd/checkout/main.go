// Command checkout runs the three-step ticket purchase flow in the
// terminal against a running ticket API. It exists for exercising the
// full flow end to end without a browser; payment completion is
// signalled manually once the session is paid (or completed via the
// mock gateway).
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/concertline/tickets/internal/client"
	"github.com/concertline/tickets/internal/wizard"
	"github.com/concertline/tickets/pkg/config"
	"github.com/concertline/tickets/pkg/logger"
)

func main() {
	apiURL := flag.String("api", "http://localhost:8080", "ticket API base URL")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.Init(&logger.Config{
		Level:       "error",
		ServiceName: "checkout-cli",
		Development: true,
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	w := wizard.New(client.New(*apiURL), &wizard.Config{
		ProcessorPublicKey: cfg.Stripe.PublishableKey,
		PollInterval:       cfg.Checkout.PollInterval,
		PollBudget:         cfg.Checkout.PollBudget,
	})

	ctx := context.Background()
	in := bufio.NewScanner(os.Stdin)

	if err := runConcertStep(ctx, w, in); err != nil {
		fatal(err)
	}
	if err := runTicketStep(ctx, w, in); err != nil {
		fatal(err)
	}
	if err := runCheckoutStep(ctx, w, in); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func prompt(in *bufio.Scanner, label string) string {
	fmt.Print(label)
	if !in.Scan() {
		os.Exit(0)
	}
	return strings.TrimSpace(in.Text())
}

func runConcertStep(ctx context.Context, w *wizard.Wizard, in *bufio.Scanner) error {
	if err := w.LoadConcerts(ctx); err != nil {
		return err
	}

	concerts := w.Concerts()
	if len(concerts) == 0 {
		return errors.New("no upcoming concerts")
	}

	fmt.Println("Upcoming concerts:")
	for _, c := range concerts {
		fmt.Printf("  [%d] %s  %s %s  %s\n", c.ID, c.Name, c.Date.Format("Mon 2 Jan 2006"), c.Time, c.Location)
	}

	for {
		id, err := strconv.ParseInt(prompt(in, "Concert id: "), 10, 64)
		if err != nil {
			fmt.Println("Enter a concert id from the list.")
			continue
		}
		if err := w.SelectConcert(ctx, id); err != nil {
			fmt.Printf("Could not select concert: %v\n", err)
			continue
		}
		return w.ContinueToTickets()
	}
}

func runTicketStep(ctx context.Context, w *wizard.Wizard, in *bufio.Scanner) error {
	for {
		fmt.Printf("\nTickets for %s:\n", w.SelectedConcert().Name)
		for _, t := range w.Selection().Types() {
			fmt.Printf("  [%d] %-14s £%.2f  (%d available)  selected: %d\n",
				t.ID, t.Label, t.Price, t.QtyAvailable, w.Selection().Quantity(t.ID))
		}
		fmt.Printf("Total: %d tickets, £%.2f\n", w.Selection().Total(), w.Selection().TotalPrice())

		line := prompt(in, "Adjust (<id> +n | <id> -n), or 'continue': ")
		if line == "continue" {
			err := w.ContinueToCheckout(ctx)
			if err == nil {
				return nil
			}

			var availErr *wizard.AvailabilityError
			var sessErr *wizard.SessionError
			switch {
			case errors.Is(err, wizard.ErrNoTicketsSelected):
				fmt.Println("Select at least one ticket first.")
			case errors.As(err, &availErr):
				fmt.Printf("Availability changed: %v. Your selection was adjusted.\n", availErr)
			case errors.As(err, &sessErr):
				fmt.Printf("Checkout rejected: %v\n", sessErr)
			default:
				return err
			}
			continue
		}

		var id int64
		var delta int
		if _, err := fmt.Sscanf(line, "%d %d", &id, &delta); err != nil {
			fmt.Println("Use: <ticket type id> <delta>, e.g. '10 +2'.")
			continue
		}
		w.Adjust(id, delta)
	}
}

func runCheckoutStep(ctx context.Context, w *wizard.Wizard, in *bufio.Scanner) error {
	sess := w.Session()
	fmt.Printf("\nCheckout session: %s\n", sess.ID)
	fmt.Printf("Client secret:    %s\n", sess.ClientSecret)
	fmt.Printf("Processor key:    %s\n", w.Config().ProcessorPublicKey)
	fmt.Println("Complete payment in the embedded form, then press enter.")
	prompt(in, "")

	if err := w.PaymentCompleted(ctx); err != nil {
		return err
	}

	fmt.Println("Confirming order...")
	<-w.Poller().Done()

	switch w.Poller().State() {
	case wizard.PollerComplete:
		order := w.Poller().Order()
		fmt.Printf("Order #%d confirmed: %.2f %s for %s\n",
			order.OrderID, order.TotalAmount, strings.ToUpper(order.Currency), order.CustomerEmail)
		return nil
	default:
		fmt.Println(supportNotice(sess.ID))
		return w.Poller().Err()
	}
}

// supportNotice directs the user to out-of-band help when confirmation
// fails or times out. Only a truncated session reference is shown.
func supportNotice(sessionID string) string {
	ref := sessionID
	if len(ref) > 20 {
		ref = ref[:20] + "..."
	}
	return fmt.Sprintf("We could not confirm your order. If you were charged, contact support and quote session %s", ref)
}
