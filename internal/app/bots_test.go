package app

import (
	"errors"
	"testing"
	"time"

	"avalon/internal/config"
	"avalon/internal/domain"
)

func botConfig() config.GameConfig {
	cfg := testGameConfig()
	cfg.BotsEnabled = true
	return cfg
}

func TestAddBotsValidation(t *testing.T) {
	t.Run("disabled by config", func(t *testing.T) {
		cfg := testGameConfig()
		cfg.BotsEnabled = false
		session, _ := newTestSession(t, 1, cfg)

		if err := session.AddBots("p0", 4); !errors.Is(err, ErrBotsDisabled) {
			t.Errorf("error = %v, want %v", err, ErrBotsDisabled)
		}
	})

	t.Run("host only", func(t *testing.T) {
		session, _ := newTestSession(t, 2, botConfig())

		if err := session.AddBots("p1", 3); !errors.Is(err, domain.ErrNotHost) {
			t.Errorf("error = %v, want %v", err, domain.ErrNotHost)
		}
	})

	t.Run("count capped at free seats", func(t *testing.T) {
		session, _ := newTestSession(t, 2, botConfig())

		if err := session.AddBots("p0", 99); err != nil {
			t.Fatalf("add bots: %v", err)
		}
		if got := session.GetPlayerCount(); got != domain.MaxPlayers {
			t.Errorf("player count = %d, want %d", got, domain.MaxPlayers)
		}
	})

	t.Run("lobby only", func(t *testing.T) {
		session, _ := newTestSession(t, 5, botConfig())
		if err := session.StartGame("p0"); err != nil {
			t.Fatalf("start: %v", err)
		}

		if err := session.AddBots("p0", 1); !errors.Is(err, domain.ErrGameAlreadyStarted) {
			t.Errorf("error = %v, want %v", err, domain.ErrGameAlreadyStarted)
		}
	})
}

// TestBotGamePlaysToCompletion seats one human host with four bots and
// drives the human's duties off state snapshots until a winner emerges.
// The bots handle everything else on their own timers.
func TestBotGamePlaysToCompletion(t *testing.T) {
	session, _ := newTestSession(t, 1, botConfig())

	if err := session.AddBots("p0", 4); err != nil {
		t.Fatalf("add bots: %v", err)
	}
	if err := session.StartGame("p0"); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		snap := session.GetGameState("p0")

		switch snap.Phase {
		case domain.PhaseFinished:
			if snap.Winner == "" || snap.WinReason == "" {
				t.Fatalf("finished without outcome: winner=%q reason=%q", snap.Winner, snap.WinReason)
			}
			if len(snap.Roles) != 5 {
				t.Errorf("role reveal = %d entries, want 5", len(snap.Roles))
			}
			return

		case domain.PhaseTeamProposal:
			if snap.LeaderID == "p0" {
				team := make([]string, 0, snap.TeamSize)
				for _, p := range snap.Players {
					if len(team) == snap.TeamSize {
						break
					}
					team = append(team, p.ID)
				}
				// Late snapshots can race the phase; failures are harmless
				session.ProposeTeam("p0", team)
			}

		case domain.PhaseTeamVoting:
			session.CastTeamVote("p0", domain.VoteApprove)

		case domain.PhaseMission:
			for _, p := range snap.ProposedTeam {
				if p.ID == "p0" {
					session.CastMissionBallot("p0", domain.BallotSuccess)
					break
				}
			}

		case domain.PhaseAssassination:
			if snap.YourRole == domain.RoleAssassin {
				session.Assassinate("p0", snap.Players[1].ID)
			}
		}

		time.Sleep(2 * time.Millisecond)
	}

	t.Fatalf("game did not finish in time, stuck at %s", session.GetPhase())
}
