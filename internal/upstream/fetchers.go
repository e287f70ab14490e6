package upstream

import (
	"context"
	"fmt"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/xgoalpro/prediction-api/internal/models"
)

const (
	recentWindowMonths  = 6
	recentWindowMatches = 5
	upcomingWindowLimit = 50
	upcomingResultCap   = 20
	headToHeadLimit     = 50
	dateLayout          = "2006-01-02"
)

// Leagues fetches the configured competitions with their emblem images. The
// emblem sub-fetches run concurrently; if any branch fails the whole call
// fails.
func (c *Client) Leagues(ctx context.Context) ([]models.League, error) {
	var resp models.CompetitionsResponse
	if err := c.Get(ctx, "competitions/", nil, &resp); err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(c.leagueCodes))
	for _, code := range c.leagueCodes {
		wanted[code] = true
	}

	var leagues []models.League
	for _, comp := range resp.Competitions {
		if !wanted[comp.Code] {
			continue
		}
		leagues = append(leagues, models.League{
			ID:   comp.ID,
			Name: comp.Name,
			Code: comp.Code,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range leagues {
		i := i
		emblemURL := emblemURLFor(resp.Competitions, leagues[i].Code)
		g.Go(func() error {
			img, err := c.FetchImage(gctx, emblemURL)
			if err != nil {
				return fmt.Errorf("league emblem %s: %w", leagues[i].Code, err)
			}
			leagues[i].Emblem = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return leagues, nil
}

func emblemURLFor(comps []models.Competition, code string) string {
	for _, comp := range comps {
		if comp.Code == code {
			return comp.Emblem
		}
	}
	return ""
}

// Teams fetches a league's standings table with team crests, returning the
// teams and the competition name.
func (c *Client) Teams(ctx context.Context, leagueCode string) ([]models.Team, string, error) {
	var resp models.StandingsResponse
	endpoint := fmt.Sprintf("competitions/%s/standings", leagueCode)
	if err := c.Get(ctx, endpoint, nil, &resp); err != nil {
		return nil, "", err
	}
	if len(resp.Standings) == 0 {
		return nil, resp.Competition.Name, nil
	}

	table := resp.Standings[0].Table
	teams := make([]models.Team, len(table))
	g, gctx := errgroup.WithContext(ctx)
	for i, entry := range table {
		i, entry := i, entry
		teams[i] = models.Team{ID: entry.Team.ID, Name: entry.Team.Name}
		g.Go(func() error {
			img, err := c.FetchImage(gctx, entry.Team.Crest)
			if err != nil {
				return fmt.Errorf("team crest %s: %w", entry.Team.Name, err)
			}
			teams[i].Emblem = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, "", err
	}
	return teams, resp.Competition.Name, nil
}

// UpcomingMatches fetches a team's fixtures over the next six months, with
// both crests fetched as paired concurrent sub-requests per match.
func (c *Client) UpcomingMatches(ctx context.Context, teamID int64) ([]models.UpcomingMatch, error) {
	now := c.now()
	params := url.Values{}
	params.Set("dateFrom", now.Format(dateLayout))
	params.Set("dateTo", now.AddDate(0, recentWindowMonths, 0).Format(dateLayout))
	params.Set("limit", fmt.Sprint(upcomingWindowLimit))

	var resp models.MatchesResponse
	endpoint := fmt.Sprintf("teams/%d/matches", teamID)
	if err := c.Get(ctx, endpoint, params, &resp); err != nil {
		return nil, err
	}

	matches := resp.Matches
	if len(matches) > upcomingResultCap {
		matches = matches[:upcomingResultCap]
	}

	out := make([]models.UpcomingMatch, len(matches))
	g, gctx := errgroup.WithContext(ctx)
	for i, m := range matches {
		i, m := i, m
		out[i] = models.UpcomingMatch{
			ID:          m.ID,
			HomeID:      m.HomeTeam.ID,
			HomeName:    m.HomeTeam.Name,
			AwayID:      m.AwayTeam.ID,
			AwayName:    m.AwayTeam.Name,
			Date:        m.UTCDate,
			Competition: m.Competition.Name,
		}
		g.Go(func() error {
			img, err := c.FetchImage(gctx, m.HomeTeam.Crest)
			if err != nil {
				return fmt.Errorf("home crest for match %d: %w", m.ID, err)
			}
			out[i].HomeEmblem = img
			return nil
		})
		g.Go(func() error {
			img, err := c.FetchImage(gctx, m.AwayTeam.Crest)
			if err != nil {
				return fmt.Errorf("away crest for match %d: %w", m.ID, err)
			}
			out[i].AwayEmblem = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// RecentMatches fetches a team's finished-match window for feature
// extraction: the last five fixtures inside a six month lookback, ending
// yesterday so in-play matches never leak in.
func (c *Client) RecentMatches(ctx context.Context, teamID int64) ([]models.Match, error) {
	now := c.now()
	params := url.Values{}
	params.Set("dateFrom", now.AddDate(0, -recentWindowMonths, 0).Format(dateLayout))
	params.Set("dateTo", now.AddDate(0, 0, -1).Format(dateLayout))
	params.Set("limit", fmt.Sprint(recentWindowMatches))

	var resp models.MatchesResponse
	endpoint := fmt.Sprintf("teams/%d/matches", teamID)
	if err := c.Get(ctx, endpoint, params, &resp); err != nil {
		return nil, err
	}
	return resp.Matches, nil
}

// HeadToHead fetches the historical meetings for a match.
func (c *Client) HeadToHead(ctx context.Context, matchID int64) ([]models.H2HMatch, error) {
	params := url.Values{}
	params.Set("limit", fmt.Sprint(headToHeadLimit))

	var resp models.MatchesResponse
	endpoint := fmt.Sprintf("matches/%d/head2head", matchID)
	if err := c.Get(ctx, endpoint, params, &resp); err != nil {
		return nil, err
	}

	out := make([]models.H2HMatch, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		out = append(out, models.H2HMatch{
			Competition: m.Competition.Name,
			Date:        m.UTCDate,
			HomeTeam:    m.HomeTeam.Name,
			AwayTeam:    m.AwayTeam.Name,
			HomeScore:   m.Score.FullTime.Home,
			AwayScore:   m.Score.FullTime.Away,
		})
	}
	return out, nil
}

// MatchDetail fetches a single match: team names for rating lookups and the
// full-time score for the backfill job.
func (c *Client) MatchDetail(ctx context.Context, matchID int64) (*models.Match, error) {
	var m models.Match
	endpoint := fmt.Sprintf("matches/%d", matchID)
	if err := c.Get(ctx, endpoint, nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
