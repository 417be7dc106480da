package conquest

// advanceTurn moves the cursor to the next seat and bumps the monotonic
// turn counter. Every resolved action advances, rule failures included.
func advanceTurn(st *State) {
	if len(st.Players) == 0 {
		return
	}
	st.TurnIdx = (st.TurnIdx + 1) % len(st.Players)
	st.TurnNumber++
}

// endTurnHousekeeping clears the acting player's attack flag at the end
// of their turn. The vulnerable window survives only a PEACE turn; any
// other action closes it.
func endTurnHousekeeping(st *State, kind Kind) {
	p := st.CurrentPlayer()
	if p == nil {
		return
	}
	p.WasAttacked = false
	if kind != KindPeace {
		p.Vulnerable = false
	}
}
