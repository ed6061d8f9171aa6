/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package player

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// RunText plays s over a line-oriented terminal. Enter continues, a number
// picks a response, "b" goes back, "f" goes forward again and "q" quits.
// End of input stops playback without error.
func RunText(s *Session, st Styles, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	line, ok := s.Step()
	for ok {
		n := len(line.Responses())
		if _, err := io.WriteString(out, st.Line(line, -1)); err != nil {
			return err
		}
		hint := "[enter] next  [b]ack  [q]uit"
		if n > 0 {
			hint = fmt.Sprintf("[1-%d] choose  [b]ack  [q]uit", n)
		}
		if _, err := fmt.Fprintln(out, st.Hint.Render(hint)); err != nil {
			return err
		}
		if !sc.Scan() {
			return sc.Err()
		}
		cmd := strings.TrimSpace(sc.Text())
		switch cmd {
		case "q":
			return nil
		case "b", "f":
			move := s.Back
			if cmd == "f" {
				move = s.Forward
			}
			prev, moved := move()
			if !moved {
				fmt.Fprintln(out, st.Hint.Render("(nothing there)"))
				continue
			}
			if prev != nil {
				line = prev
				continue
			}
			line, ok = s.Step()
			continue
		}
		if n > 0 {
			i, err := strconv.Atoi(cmd)
			if err != nil || s.Choose(i-1) != nil {
				fmt.Fprintln(out, st.Hint.Render(fmt.Sprintf("(pick a response between 1 and %d)", n)))
				continue
			}
		}
		line, ok = s.Step()
	}
	_, err := io.WriteString(out, st.Finished())
	return err
}
