package gradebook

import "strings"

// The PIN gates the interface only. It is compared in plain text and has no lockout.

// Login switches to the logged-in state when pin matches the stored PIN.
func (s *Store) Login(pin string) error {
	var stored string
	s.read(func(st *AppState) { stored = st.PIN })
	if pin != stored {
		return ErrIncorrectPIN
	}
	return s.mutate("login", false, func(st *AppState) (string, error) {
		if st.IsLoggedIn {
			return "", errNoChange
		}
		st.IsLoggedIn = true
		return "", nil
	})
}

// Logout switches to the logged-out state.
func (s *Store) Logout() error {
	return s.mutate("logout", false, func(st *AppState) (string, error) {
		if !st.IsLoggedIn {
			return "", errNoChange
		}
		st.IsLoggedIn = false
		return "", nil
	})
}

// LoggedIn reports the login state.
func (s *Store) LoggedIn() bool {
	var in bool
	s.read(func(st *AppState) { in = st.IsLoggedIn })
	return in
}

// ChangePIN replaces the stored PIN.
func (s *Store) ChangePIN(pin string) error {
	in := pinInput{PIN: strings.TrimSpace(pin)}
	if err := check(&in); err != nil {
		return err
	}
	return s.mutate("changePIN", false, func(st *AppState) (string, error) {
		st.PIN = in.PIN
		return "", nil
	})
}
